// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// dispatchSegment selects the single- or dual-representation path and
// produces the rewritten segment bytes plus the tfdt value written for
// the first representation. The tfdt is cross-checked against the value
// derived independently from the TimingDecision.
func dispatchSegment(vodFS fs.FS, a *asset, cfg *ResponseConfig, rot rotation,
	dec TimingDecision, segNr int, reps []*RepData) ([]byte, uint64, error) {

	segDurS := rot.active().SegmentDurS
	switch len(reps) {
	case 1:
		res, err := rewriteOne(vodFS, a, cfg, dec, segNr, segDurS, reps[0])
		if err != nil {
			return nil, 0, err
		}
		if err := checkTfdt(res.tfdt, dec, segDurS, reps[0]); err != nil {
			return nil, 0, err
		}
		data, err := encodeSegment(res.seg)
		if err != nil {
			return nil, 0, err
		}
		return data, res.tfdt, nil
	case 2:
		res1, err := rewriteOne(vodFS, a, cfg, dec, segNr, segDurS, reps[0])
		if err != nil {
			return nil, 0, err
		}
		res2, err := rewriteOne(vodFS, a, cfg, dec, segNr, segDurS, reps[1])
		if err != nil {
			return nil, 0, err
		}
		if err := checkTfdt(res1.tfdt, dec, segDurS, reps[0]); err != nil {
			return nil, 0, err
		}
		if err := checkTfdt(res2.tfdt, dec, segDurS, reps[1]); err != nil {
			return nil, 0, err
		}
		muxed, err := muxMediaSegments(res1, res2, reps[0], reps[1])
		if err != nil {
			return nil, 0, fmt.Errorf("mux segments: %w", err)
		}
		data, err := encodeSegment(muxed)
		if err != nil {
			return nil, 0, err
		}
		return data, res1.tfdt, nil
	default:
		return nil, 0, newErrConfig("bad nr of representations: %d", len(reps))
	}
}

// rewriteOne reads the VoD segment for one representation and rewrites
// its timing. Storage path is assetPath/repID/<localSegNr>.m4s.
func rewriteOne(vodFS fs.FS, a *asset, cfg *ResponseConfig, dec TimingDecision,
	segNr, segDurS int, rep *RepData) (rewriteResult, error) {

	var res rewriteResult
	segPath := path.Join(a.AssetPath, rep.ID, fmt.Sprintf("%d.m4s", dec.LocalSegNr))
	data, err := fs.ReadFile(vodFS, segPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, errNotFound
		}
		return res, fmt.Errorf("read segment %s: %w", segPath, err)
	}
	scte35PerMinute := 0
	if rep.isVideo() {
		scte35PerMinute = cfg.SCTE35PerMinute
	}
	spec := rewriteSpec{
		liveNr:          segNr,
		segDurS:         segDurS,
		mediaTimeS:      dec.mediaTimeS(segDurS),
		timescale:       rep.Timescale,
		isLast:          dec.IsLast,
		scte35PerMinute: scte35PerMinute,
		isSubtitle:      rep.isSubtitle(),
	}
	res, err = rewriteMediaSegment(data, spec)
	if err != nil {
		return res, fmt.Errorf("rewrite %s: %w", segPath, err)
	}
	return res, nil
}

// checkTfdt verifies that the rewritten timestamp equals the value the
// TimingDecision predicts. A mismatch means manifest and segments would
// disagree, which must never reach a client.
func checkTfdt(tfdt uint64, dec TimingDecision, segDurS int, rep *RepData) error {
	expected := uint64(dec.mediaTimeS(segDurS)) * uint64(rep.Timescale)
	if tfdt != expected {
		return fmt.Errorf("tfdt mismatch for rep %s: wrote %d, expected %d", rep.ID, tfdt, expected)
	}
	return nil
}
