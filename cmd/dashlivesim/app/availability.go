// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	// aetGraceS is how long segments stay available after availabilityEndTime.
	aetGraceS = 60
	// faultModulusS: the up/down schedule repeats every minute regardless
	// of its cycle length.
	faultModulusS = 60
)

// checkInitAvailability gates an init segment request against the
// availability start time minus the configured init offset.
func checkInitAvailability(cfg *ResponseConfig, nowMS int) error {
	availMS := (cfg.AvailabilityStartTimeS - cfg.InitSegAvailOffsetS) * 1000
	if nowMS < availMS {
		return newErrTooEarly(availMS - nowMS)
	}
	return nil
}

// checkMediaAvailability gates a media segment request. It checks both the
// first-segment availability start and the requested segment's own
// availability time, and the optional availability end time with grace.
func checkMediaAvailability(cfg *ResponseConfig, segDurS, segNr, nowMS int) error {
	firstSegAstMS := cfg.AvailabilityStartTimeS * 1000
	if cfg.AvailabilityTimeOffsetS >= 0 {
		firstSegAstMS += segDurS*1000 - int(cfg.AvailabilityTimeOffsetS*1000)
	}
	if nowMS < firstSegAstMS {
		return newErrTooEarly(firstSegAstMS - nowMS)
	}
	segAstMS := segmentAvailTimeS(cfg, segDurS, segNr) * 1000
	if cfg.AvailabilityTimeOffsetS >= 0 {
		segAstMS -= int(cfg.AvailabilityTimeOffsetS * 1000)
	}
	if nowMS < segAstMS {
		return newErrTooEarly(segAstMS - nowMS)
	}
	if cfg.AvailabilityEndTimeS != nil {
		endMS := (*cfg.AvailabilityEndTimeS + aetGraceS) * 1000
		if nowMS > endMS {
			return errTooLate{deltaMS: nowMS - endMS}
		}
	}
	return nil
}

// faultWindow is an up/down outage schedule parsed from a baseurl option
// like "u10_d5" (up 10 s, down 5 s, repeating).
type faultWindow struct {
	upFirst bool
	firstS  int
	secondS int
}

// parseFaultWindow parses "uA_dB" or "dA_uB". Returns ok=false for
// anything else.
func parseFaultWindow(val string) (faultWindow, bool) {
	var fw faultWindow
	a, b, ok := strings.Cut(val, "_")
	if !ok || len(a) < 2 || len(b) < 2 {
		return fw, false
	}
	switch {
	case a[0] == 'u' && b[0] == 'd':
		fw.upFirst = true
	case a[0] == 'd' && b[0] == 'u':
		fw.upFirst = false
	default:
		return fw, false
	}
	firstS, err := strconv.Atoi(a[1:])
	if err != nil || firstS <= 0 {
		return fw, false
	}
	secondS, err := strconv.Atoi(b[1:])
	if err != nil || secondS <= 0 {
		return fw, false
	}
	fw.firstS = firstS
	fw.secondS = secondS
	return fw, true
}

// isDown reports whether the schedule is in a down sub-interval at nowS.
// The phase is nowS mod 60, with as many cycle repetitions as fit in a minute.
func (fw faultWindow) isDown(nowS int) bool {
	cycleS := fw.firstS + fw.secondS
	nrCycles := (faultModulusS + cycleS - 1) / cycleS
	phase := floorMod(nowS, faultModulusS)
	for i := 0; i < nrCycles; i++ {
		var downStart, downEnd int
		if fw.upFirst {
			downStart = i*cycleS + fw.firstS
			downEnd = (i + 1) * cycleS
		} else {
			downStart = i * cycleS
			downEnd = i*cycleS + fw.firstS
		}
		if downStart < phase && phase <= downEnd {
			return true
		}
	}
	return false
}

// checkFault evaluates the configured fault-injection window, if any.
// Evaluated on every media request, independent of availability checks.
func checkFault(cfg *ResponseConfig, nowS int) error {
	if cfg.FaultWindow == nil {
		return nil
	}
	if cfg.FaultWindow.isDown(nowS) {
		return errFaultInjected{atS: nowS}
	}
	return nil
}

// Delayer delays a media segment response. The server injects a real
// sleep; tests use NopDelayer so that the core never blocks on its own.
type Delayer func(ctx context.Context)

// NopDelayer does not delay.
func NopDelayer(ctx context.Context) {}

// NewSleepDelayer returns a Delayer sleeping for the given duration,
// bounded by the request context.
func NewSleepDelayer(d time.Duration) Delayer {
	return func(ctx context.Context) {
		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
	}
}
