// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
)

// muxInitSegments combines two single-track init segments into one
// two-track init segment. The second track gets trackID 2.
func muxInitSegments(init1, init2 []byte) ([]byte, error) {
	i1, err := decodeInit(init1)
	if err != nil {
		return nil, fmt.Errorf("first init: %w", err)
	}
	i2, err := decodeInit(init2)
	if err != nil {
		return nil, fmt.Errorf("second init: %w", err)
	}
	trak2 := i2.Moov.Trak
	trak2.Tkhd.TrackID = 2
	trex2 := i2.Moov.Mvex.Trex
	trex2.TrackID = 2
	i1.Moov.AddChild(trak2)
	i1.Moov.Mvex.AddChild(trex2)
	i1.Moov.Mvhd.NextTrackID = 3

	sw := bits.NewFixedSliceWriter(int(i1.Size()))
	if err := i1.EncodeSW(sw); err != nil {
		return nil, fmt.Errorf("encode muxed init: %w", err)
	}
	return sw.Bytes(), nil
}

// decodeInit decodes a fresh init segment from bytes. The cached decoded
// init in RepData is shared process-wide and must not be mutated.
func decodeInit(data []byte) (*mp4.InitSegment, error) {
	sr := bits.NewFixedSliceReader(data)
	f, err := mp4.DecodeFileSR(sr)
	if err != nil {
		return nil, fmt.Errorf("decode init segment: %w", err)
	}
	if f.Init == nil {
		return nil, fmt.Errorf("no moov box")
	}
	return f.Init, nil
}

// muxMediaSegments interleaves two rewritten single-track segments into
// one two-track segment on sample level. Both inputs must already carry
// live timing, so the muxed tfdt values equal the rewritten ones.
func muxMediaSegments(res1, res2 rewriteResult, rep1, rep2 *RepData) (*mp4.MediaSegment, error) {
	frag, err := mp4.CreateMultiTrackFragment(res1.seg.Fragments[0].Moof.Mfhd.SequenceNumber,
		[]uint32{1, 2})
	if err != nil {
		return nil, fmt.Errorf("create multi-track fragment: %w", err)
	}
	if err := addTrackSamples(frag, res1.seg, rep1, 1); err != nil {
		return nil, fmt.Errorf("track 1: %w", err)
	}
	if err := addTrackSamples(frag, res2.seg, rep2, 2); err != nil {
		return nil, fmt.Errorf("track 2: %w", err)
	}
	out := &mp4.MediaSegment{Styp: res1.seg.Styp}
	out.AddFragment(frag)
	return out, nil
}

func addTrackSamples(frag *mp4.Fragment, seg *mp4.MediaSegment, rep *RepData, trackID uint32) error {
	trex := rep.initSeg.Moov.Mvex.Trex
	for _, inFrag := range seg.Fragments {
		samples, err := inFrag.GetFullSamples(trex)
		if err != nil {
			return fmt.Errorf("getFullSamples: %w", err)
		}
		for _, s := range samples {
			if err := frag.AddFullSampleToTrack(s, trackID); err != nil {
				return fmt.Errorf("addFullSampleToTrack: %w", err)
			}
		}
	}
	return nil
}
