// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// defaultMinimumUpdatePeriod means "effectively never refreshes automatically".
const defaultMinimumUpdatePeriod = "P100Y"

// PeriodDescriptor describes one MPD period, derived from the active
// rotation with the same arithmetic the segment mapper uses.
type PeriodDescriptor struct {
	ID          string
	StartS      int
	DurationS   int
	StartNumber int
	// PresentationTimeOffset in timescale units of the period's reference
	// representation.
	PresentationTimeOffset uint64
	SegmentDurS            int
	Timescale              int
}

// MPDTimingData is the top-level timing field set handed to the manifest
// serializer verbatim.
type MPDTimingData struct {
	MinimumUpdatePeriod       string
	MediaPresentationDuration string // empty unless a finite stream is configured
	TimeShiftBufferDepth      string
	TimeShiftBufferDepthInS   int
	PublishTime               string
	AvailabilityStartTime     string
	PresentationTimeOffset    int // always 0 at MPD level
	AvailabilityTimeOffset    float64
	AvailabilityEndTime       string // empty unless configured
}

// buildPeriods derives one PeriodDescriptor per clip in the active
// rotation. The running start offset begins at the rotation's
// startFromAst, so the period startNumbers line up with the numbers the
// segment mapper accepts.
func buildPeriods(rot rotation, cfg *ResponseConfig, timescale int) []PeriodDescriptor {
	periods := make([]PeriodDescriptor, 0, len(rot.vods))
	startS := rot.startFromAstS
	for _, vod := range rot.vods {
		periods = append(periods, PeriodDescriptor{
			ID:                     fmt.Sprintf("p%d", startS),
			StartS:                 startS,
			DurationS:              vod.TotalDurationS,
			StartNumber:            cfg.effectiveStartNr() + startS/vod.SegmentDurS,
			PresentationTimeOffset: uint64(startS) * uint64(timescale),
			SegmentDurS:            vod.SegmentDurS,
			Timescale:              timescale,
		})
		startS += vod.TotalDurationS
	}
	return periods
}

// buildMPDTiming derives the top-level MPD timing fields.
func buildMPDTiming(cfg *ResponseConfig, nowS int) MPDTimingData {
	td := MPDTimingData{
		MinimumUpdatePeriod:     defaultMinimumUpdatePeriod,
		TimeShiftBufferDepth:    secondsToISODuration(cfg.TimeShiftBufferDepthS),
		TimeShiftBufferDepthInS: cfg.TimeShiftBufferDepthS,
		AvailabilityStartTime:   string(m.ConvertToDateTimeS(int64(cfg.AvailabilityStartTimeS))),
		PresentationTimeOffset:  0,
		AvailabilityTimeOffset:  cfg.AvailabilityTimeOffsetS,
	}
	if cfg.MinimumUpdatePeriodS != nil {
		td.MinimumUpdatePeriod = secondsToISODuration(*cfg.MinimumUpdatePeriodS)
	}
	if cfg.MediaPresentationDurS != nil {
		td.MediaPresentationDuration = secondsToISODuration(*cfg.MediaPresentationDurS)
	}
	publishS := cfg.AvailabilityStartTimeS
	if cfg.PublishTimeAtRequest {
		publishS = nowS
	}
	td.PublishTime = string(m.ConvertToDateTimeS(int64(publishS)))
	if cfg.AvailabilityEndTimeS != nil {
		td.AvailabilityEndTime = string(m.ConvertToDateTimeS(int64(*cfg.AvailabilityEndTimeS)))
	}
	return td
}

// secondsToISODuration formats whole seconds as an ISO-8601 duration like PT30S.
func secondsToISODuration(seconds int) string {
	return fmt.Sprintf("PT%dS", seconds)
}
