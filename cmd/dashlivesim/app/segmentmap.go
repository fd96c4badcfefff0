// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"strconv"
	"strings"
)

// TimingDecision is the result of mapping a live segment number onto the
// active rotation. It feeds the segment rewriter and must agree exactly
// with the numbers the manifest advertises for the same instant.
type TimingDecision struct {
	// VodIdx is the index of the mapped clip in the active rotation.
	VodIdx      int
	LocalSegNr  int // VoD-relative segment number
	SegNrInLoop int
	// OffsetAtLoopStartS is the media offset (seconds since AST) where
	// the current loop of the mapped clip starts.
	OffsetAtLoopStartS int
	// IsLast marks a configured terminal segment ("end of stream").
	IsLast bool
}

// mediaTimeS returns the live media time (seconds since AST) of the segment.
func (td TimingDecision) mediaTimeS(segDurS int) int {
	return td.OffsetAtLoopStartS + td.SegNrInLoop*segDurS
}

// mapSegment converts a requested live segment number into a TimingDecision.
// The arithmetic is integer seconds throughout, so identical inputs always
// give identical results.
func mapSegment(cfg *ResponseConfig, rot rotation, segNr int) (TimingDecision, error) {
	var td TimingDecision
	startNr := cfg.effectiveStartNr()
	if segNr < startNr {
		return td, errSegmentRange{nr: segNr, bound: startNr}
	}
	if len(cfg.LastSegmentNumbers) > 0 {
		veryLast := cfg.LastSegmentNumbers[len(cfg.LastSegmentNumbers)-1]
		if segNr > veryLast {
			return td, errSegmentRange{nr: segNr, bound: veryLast, beyond: true}
		}
	}
	vod := rot.active()
	td.VodIdx = 0 // active() is always the head of the rotated catalog
	segTimeS := (segNr-startNr)*vod.SegmentDurS + cfg.AvailabilityStartTimeS
	diffS := segTimeS - cfg.AvailabilityStartTimeS
	loops := floorDiv(diffS, rot.loopDurS)
	timeS := floorMod(diffS, rot.loopDurS)

	// Only the first initial-duration boundary is consulted. The
	// configuration accepts a list, but additional entries are ignored.
	lastS := 0
	if len(cfg.InitialDurations) > 0 && timeS >= cfg.InitialDurations[0] {
		lastS = cfg.InitialDurations[0]
	}
	td.SegNrInLoop = (timeS - lastS) / vod.SegmentDurS
	td.LocalSegNr = td.SegNrInLoop + vod.FirstSegmentInLoop
	td.OffsetAtLoopStartS = loops*rot.loopDurS + lastS
	td.IsLast = cfg.isLastSegment(segNr)
	return td, nil
}

// segNrFromStem extracts the live segment number from a filename stem.
// A stem with a leading time marker 't' carries a media timestamp in
// timescale units and is converted by rounding to the nearest segment.
func segNrFromStem(stem string, segDurS, timescale int) (int, error) {
	if strings.HasPrefix(stem, "t") {
		ts, err := strconv.Atoi(stem[1:])
		if err != nil {
			return 0, fmt.Errorf("bad time marker %q: %w", stem, err)
		}
		d := segDurS * timescale
		return (ts + d/2) / d, nil
	}
	nr, err := strconv.Atoi(stem)
	if err != nil {
		return 0, fmt.Errorf("bad segment stem %q: %w", stem, err)
	}
	return nr, nil
}

// segmentAvailTimeS is the inverse mapping: the wall-clock second at which
// segment nr becomes available (the end of its interval, before any
// availabilityTimeOffset is applied).
func segmentAvailTimeS(cfg *ResponseConfig, segDurS, nr int) int {
	return (nr+1-cfg.effectiveStartNr())*segDurS + cfg.AvailabilityStartTimeS
}

// liveEdgeSegNr is the newest segment number available at nowS. The value
// is consistent with both the availability gate and the startNumber
// arithmetic the manifest advertises.
func liveEdgeSegNr(cfg *ResponseConfig, segDurS, nowS int) int {
	return floorDiv(nowS-cfg.AvailabilityStartTimeS, segDurS) + cfg.effectiveStartNr() - 1
}
