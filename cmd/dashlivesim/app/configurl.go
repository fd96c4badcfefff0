// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"sort"
	"strings"
)

// ResponseConfig is the resolved per-request configuration. It is fully
// populated by processURLCfg plus the asset catalog before the timing
// engine runs, and read-only afterwards.
type ResponseConfig struct {
	AvailabilityStartTimeS int      `json:"AvailabilityStartTimeS"`
	StartNr                int      `json:"StartNr"` // -1 means implicit start number 1
	TimeShiftBufferDepthS  int      `json:"TimeShiftBufferDepthS"`
	MinimumUpdatePeriodS   *int     `json:"MinimumUpdatePeriodS,omitempty"`
	InitSegAvailOffsetS    int      `json:"InitSegAvailOffsetS,omitempty"`
	AvailabilityEndTimeS   *int     `json:"AvailabilityEndTimeS,omitempty"`
	MediaPresentationDurS  *int     `json:"MediaPresentationDurS,omitempty"`
	// AvailabilityTimeOffsetS == -1 means not configured.
	AvailabilityTimeOffsetS float64 `json:"AvailabilityTimeOffsetS"`
	// LastSegmentNumbers is the optional finite terminal segment-number
	// set, sorted ascending.
	LastSegmentNumbers []int `json:"LastSegmentNumbers,omitempty"`
	// InitialDurations supports a non-uniform first loop. Populated from
	// the asset catalog.
	InitialDurations     []int        `json:"InitialDurationsS,omitempty"`
	SCTE35PerMinute      int          `json:"SCTE35PerMinute,omitempty"`
	FaultWindow          *faultWindow `json:"-"`
	TimeOffsetS          *int         `json:"TimeOffsetS,omitempty"`
	PublishTimeAtRequest bool         `json:"PublishTimeAtRequest,omitempty"`
	InsertAdFlag         bool         `json:"InsertAdFlag,omitempty"`
	NoDelayFlag          bool         `json:"NoDelayFlag,omitempty"`
}

const (
	defaultAvailabilityStartTimeS = 0
	defaultTimeShiftBufferDepthS  = 60
	defaultStartNr                = 0
)

// NewResponseConfig returns a new ResponseConfig with default values.
func NewResponseConfig() *ResponseConfig {
	return &ResponseConfig{
		AvailabilityStartTimeS:  defaultAvailabilityStartTimeS,
		StartNr:                 defaultStartNr,
		TimeShiftBufferDepthS:   defaultTimeShiftBufferDepthS,
		AvailabilityTimeOffsetS: -1,
	}
}

// effectiveStartNr maps the implicit startNumber (-1) to 1.
func (rc *ResponseConfig) effectiveStartNr() int {
	if rc.StartNr == -1 {
		return 1
	}
	return rc.StartNr
}

func (rc *ResponseConfig) isLastSegment(nr int) bool {
	for _, last := range rc.LastSegmentNumbers {
		if nr == last {
			return true
		}
	}
	return false
}

// setAsset fills in the catalog-derived parts of the configuration.
func (rc *ResponseConfig) setAsset(a *asset) {
	rc.InitialDurations = a.InitialDurations
}

// processURLCfg extracts all configuration from the urlParts.
// Options are leading key_value path segments; the first segment that is
// not an option starts the content path.
func processURLCfg(urlParts []string, nowS int) (cfg *ResponseConfig, contentStartIdx int, err error) {
	cfg = NewResponseConfig()
	sc := strConvAccErr{}
	contentStartIdx = -1
	skipStart := 2
cfgLoop:
	for i, part := range urlParts {
		if i < skipStart {
			continue // Skip "" and "dashlivesim"
		}
		key, val, ok := strings.Cut(part, "_")
		if !ok {
			contentStartIdx = i
			break cfgLoop
		}
		switch key {
		case "start", "ast": // availabilityStartTime in epoch seconds
			cfg.AvailabilityStartTimeS = sc.Atoi(key, val)
		case "startrel":
			cfg.AvailabilityStartTimeS = sc.Atoi(key, val) + nowS
		case "snr": // startNumber. -1 means implicit, which == 1
			cfg.StartNr = sc.Atoi(key, val)
		case "tsbd":
			cfg.TimeShiftBufferDepthS = sc.Atoi(key, val)
		case "mup":
			cfg.MinimumUpdatePeriodS = sc.AtoiPtr(key, val)
		case "init": // make the init segment available earlier
			cfg.InitSegAvailOffsetS = sc.Atoi(key, val)
		case "aet": // availabilityEndTime in epoch seconds
			cfg.AvailabilityEndTimeS = sc.AtoiPtr(key, val)
		case "mpdur": // mediaPresentationDuration for a finite stream
			cfg.MediaPresentationDurS = sc.AtoiPtr(key, val)
		case "ato":
			if val == "inf" {
				cfg.AvailabilityTimeOffsetS = -1
			} else {
				cfg.AvailabilityTimeOffsetS = sc.AtofPos(key, val)
			}
		case "lastsegnum": // comma-separated terminal segment numbers
			cfg.LastSegmentNumbers = sc.AtoiList(key, val)
			sort.Ints(cfg.LastSegmentNumbers)
		case "scte35":
			cfg.SCTE35PerMinute = sc.Atoi(key, val)
		case "baseurl": // up/down fault window such as u10_d5
			fw, ok := parseFaultWindow(val)
			if !ok {
				return nil, 0, fmt.Errorf("bad baseurl fault window %q", val)
			}
			cfg.FaultWindow = &fw
		case "timeoffset": // offset in seconds added to the wall clock
			cfg.TimeOffsetS = sc.AtoiPtr(key, val)
		case "publishtime": // publishTime follows the request time
			cfg.PublishTimeAtRequest = sc.Atoi(key, val) != 0
		case "insertad":
			cfg.InsertAdFlag = true
		case "nodelay":
			cfg.NoDelayFlag = true
		default:
			contentStartIdx = i
			break cfgLoop
		}
	}
	if sc.err != nil {
		return nil, 0, sc.err
	}
	if contentStartIdx == -1 || contentStartIdx == len(urlParts)-1 {
		return nil, 0, fmt.Errorf("no content part")
	}
	if err := verifyConfig(cfg); err != nil {
		return nil, 0, fmt.Errorf("url config: %w", err)
	}
	return cfg, contentStartIdx, nil
}

func verifyConfig(cfg *ResponseConfig) error {
	if cfg.TimeShiftBufferDepthS < 0 {
		return fmt.Errorf("timeShiftBufferDepth must be non-negative")
	}
	if cfg.SCTE35PerMinute < 0 || cfg.SCTE35PerMinute > 3 {
		return fmt.Errorf("scte35 per minute must be 0, 1, 2, or 3")
	}
	if cfg.AvailabilityEndTimeS != nil && *cfg.AvailabilityEndTimeS < cfg.AvailabilityStartTimeS {
		return fmt.Errorf("availabilityEndTime before availabilityStartTime")
	}
	return nil
}
