// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/grenault73/dash-live-source-simulator/pkg/scte35"
)

// rewriteSpec carries the values the timing engine computed for one
// outgoing segment.
type rewriteSpec struct {
	liveNr          int
	segDurS         int
	mediaTimeS      int // live media time (seconds since AST)
	timescale       int
	isLast          bool
	scte35PerMinute int
	isSubtitle      bool
}

type rewriteResult struct {
	seg  *mp4.MediaSegment
	tfdt uint64 // value actually written
}

// rewriteMediaSegment patches a stored VoD segment so that its timing
// matches the live timeline: tfdt (and sidx, if present) moved to the
// live media time, sequenceNumber set to the requested live number, and
// an lmsg brand added on terminal segments.
func rewriteMediaSegment(data []byte, spec rewriteSpec) (rewriteResult, error) {
	var res rewriteResult
	sr := bits.NewFixedSliceReader(data)
	f, err := mp4.DecodeFileSR(sr)
	if err != nil {
		return res, fmt.Errorf("decode segment: %w", err)
	}
	if len(f.Segments) != 1 {
		return res, fmt.Errorf("not 1 but %d segments", len(f.Segments))
	}
	seg := f.Segments[0]
	if len(seg.Fragments) == 0 {
		return res, fmt.Errorf("no fragments in segment")
	}

	newTime := uint64(spec.mediaTimeS) * uint64(spec.timescale)
	timeShift := newTime - seg.Fragments[0].Moof.Traf.Tfdt.BaseMediaDecodeTime()

	if seg.Sidx != nil {
		if len(seg.Sidxs) > 1 {
			return res, fmt.Errorf("more than one sidx not supported")
		}
		seg.Sidx.Timescale = uint32(spec.timescale)
		seg.Sidx.EarliestPresentationTime = newTime
	}

	if spec.isSubtitle {
		if err := shiftSubtitleTimes(seg, spec.timescale, timeShift, uint32(spec.liveNr)); err != nil {
			return res, fmt.Errorf("shiftSubtitleTimes: %w", err)
		}
	} else {
		for _, frag := range seg.Fragments {
			shiftFragmentTime(frag, timeShift, uint32(spec.liveNr))
		}
	}

	if spec.scte35PerMinute > 0 {
		endTime := newTime + uint64(spec.segDurS)*uint64(spec.timescale)
		emsg, err := scte35.CreateEmsgAhead(newTime, endTime, uint64(spec.timescale), spec.scte35PerMinute)
		if err != nil {
			return res, fmt.Errorf("insert SCTE-35: %w", err)
		}
		if emsg != nil {
			seg.Fragments[0].AddEmsg(emsg)
		}
	}

	if spec.isLast && seg.Styp != nil {
		seg.Styp.AddCompatibleBrands([]string{"lmsg"})
	}
	res.seg = seg
	res.tfdt = seg.Fragments[0].Moof.Traf.Tfdt.BaseMediaDecodeTime()
	return res, nil
}

// shiftFragmentTime moves a fragment's baseMediaDecodeTime and sets the
// live sequence number, compensating box offsets if the tfdt grows from
// 32-bit to 64-bit.
func shiftFragmentTime(frag *mp4.Fragment, timeShift uint64, newNr uint32) {
	traf := frag.Moof.Traf
	tfdt := traf.Tfdt
	oldSize := tfdt.Size()
	frag.Moof.Mfhd.SequenceNumber = newNr
	tfdt.SetBaseMediaDecodeTime(tfdt.BaseMediaDecodeTime() + timeShift)
	sizeDiff := int32(tfdt.Size()) - int32(oldSize)
	if sizeDiff == 0 {
		return
	}
	traf.Trun.DataOffset += sizeDiff
	frag.Mdat.StartPos += uint64(sizeDiff)
	if traf.Saio != nil && saioAfterTfdt(traf) {
		for i := range traf.Saio.Offset {
			traf.Saio.Offset[i] += int64(sizeDiff)
		}
	}
}

// saioAfterTfdt reports whether the saio box comes after tfdt in traf.
func saioAfterTfdt(traf *mp4.TrafBox) bool {
	tfdtIdx, saioIdx := -1, -1
	for i, c := range traf.Children {
		switch c.Type() {
		case "tfdt":
			tfdtIdx = i
		case "saio":
			saioIdx = i
		}
	}
	return tfdtIdx >= 0 && saioIdx > tfdtIdx
}

// encodeSegment serializes a rewritten media segment.
func encodeSegment(seg *mp4.MediaSegment) ([]byte, error) {
	sw := bits.NewFixedSliceWriter(int(seg.Size()))
	if err := seg.EncodeSW(sw); err != nil {
		return nil, fmt.Errorf("encode segment: %w", err)
	}
	return sw.Bytes(), nil
}

// shiftSubtitleTimes shifts the baseMediaDecodeTime and the TTML
// timestamps inside an stpp segment.
func shiftSubtitleTimes(seg *mp4.MediaSegment, timescale int, timeShift uint64, newNr uint32) error {
	if len(seg.Fragments) != 1 {
		return fmt.Errorf("not 1 but %d fragments", len(seg.Fragments))
	}
	frag := seg.Fragments[0]
	shiftFragmentTime(frag, timeShift, newNr)
	samples, err := frag.GetFullSamples(nil)
	if err != nil {
		return fmt.Errorf("getFullSamples: %w", err)
	}
	if len(samples) != 1 {
		return fmt.Errorf("not 1 but %d samples in subtitle segment", len(samples))
	}
	shiftMS := uint64(math.Round(float64(timeShift) / float64(timescale) * 1000.0))
	newData := shiftTTMLTimestamps(samples[0].Data, shiftMS)
	newSize := uint32(len(newData))
	tfhd := frag.Moof.Traf.Tfhd
	if tfhd.HasDefaultSampleSize() {
		tfhd.DefaultSampleSize = newSize
	}
	trun := frag.Moof.Traf.Trun
	if trun.HasSampleSize() {
		trun.Samples[0].Size = newSize
	}
	frag.Mdat.Data = newData
	return nil
}

var ttmlTimeExp = regexp.MustCompile(`(\d\d+):(\d\d):(\d\d)(\.\d\d\d)?`)

// shiftTTMLTimestamps shifts every hh:mm:ss[.mmm] timestamp in a TTML document.
func shiftTTMLTimestamps(data []byte, shiftMS uint64) []byte {
	return ttmlTimeExp.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := ttmlTimeExp.FindSubmatch(match)
		hours, _ := strconv.Atoi(string(sub[1]))
		minutes, _ := strconv.Atoi(string(sub[2]))
		seconds, _ := strconv.Atoi(string(sub[3]))
		ms := 0
		if len(sub[4]) > 0 {
			ms, _ = strconv.Atoi(strings.TrimPrefix(string(sub[4]), "."))
		}
		totalMS := uint64(hours)*3600_000 + uint64(minutes)*60_000 +
			uint64(seconds)*1000 + uint64(ms) + shiftMS
		return []byte(fmt.Sprintf("%02d:%02d:%02d.%03d",
			totalMS/3600_000, (totalMS%3600_000)/60_000, (totalMS%60_000)/1000, totalMS%1000))
	})
}
