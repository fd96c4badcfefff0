package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessURLCfg(t *testing.T) {
	nowS := 1000

	cases := []struct {
		desc    string
		url     string
		wantErr string
		check   func(t *testing.T, cfg *ResponseConfig)
	}{
		{
			desc: "no options",
			url:  "/dashlivesim/testpic/V300/0.m4s",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, 0, cfg.AvailabilityStartTimeS)
				assert.Equal(t, 60, cfg.TimeShiftBufferDepthS)
				assert.Equal(t, -1.0, cfg.AvailabilityTimeOffsetS)
				assert.Nil(t, cfg.MinimumUpdatePeriodS)
			},
		},
		{
			desc: "start and snr",
			url:  "/dashlivesim/start_1200/snr_-1/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, 1200, cfg.AvailabilityStartTimeS)
				assert.Equal(t, -1, cfg.StartNr)
				assert.Equal(t, 1, cfg.effectiveStartNr())
			},
		},
		{
			desc: "relative start",
			url:  "/dashlivesim/startrel_-30/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, nowS-30, cfg.AvailabilityStartTimeS)
			},
		},
		{
			desc: "timing options",
			url:  "/dashlivesim/tsbd_120/mup_30/init_10/aet_2000/mpdur_600/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, 120, cfg.TimeShiftBufferDepthS)
				require.NotNil(t, cfg.MinimumUpdatePeriodS)
				assert.Equal(t, 30, *cfg.MinimumUpdatePeriodS)
				assert.Equal(t, 10, cfg.InitSegAvailOffsetS)
				require.NotNil(t, cfg.AvailabilityEndTimeS)
				assert.Equal(t, 2000, *cfg.AvailabilityEndTimeS)
				require.NotNil(t, cfg.MediaPresentationDurS)
				assert.Equal(t, 600, *cfg.MediaPresentationDurS)
			},
		},
		{
			desc: "ato value and inf",
			url:  "/dashlivesim/ato_1.5/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, 1.5, cfg.AvailabilityTimeOffsetS)
			},
		},
		{
			desc: "ato inf means unset",
			url:  "/dashlivesim/ato_inf/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, -1.0, cfg.AvailabilityTimeOffsetS)
			},
		},
		{
			desc: "last segment numbers are sorted",
			url:  "/dashlivesim/lastsegnum_20,10,15/testpic/V300/10.m4s",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, []int{10, 15, 20}, cfg.LastSegmentNumbers)
				assert.True(t, cfg.isLastSegment(15))
				assert.False(t, cfg.isLastSegment(16))
			},
		},
		{
			desc: "scte35 and flags",
			url:  "/dashlivesim/scte35_2/insertad_1/nodelay_1/publishtime_1/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				assert.Equal(t, 2, cfg.SCTE35PerMinute)
				assert.True(t, cfg.InsertAdFlag)
				assert.True(t, cfg.NoDelayFlag)
				assert.True(t, cfg.PublishTimeAtRequest)
			},
		},
		{
			desc: "fault window",
			url:  "/dashlivesim/baseurl_u10_d5/testpic/V300/0.m4s",
			check: func(t *testing.T, cfg *ResponseConfig) {
				require.NotNil(t, cfg.FaultWindow)
				assert.True(t, cfg.FaultWindow.upFirst)
				assert.Equal(t, 10, cfg.FaultWindow.firstS)
				assert.Equal(t, 5, cfg.FaultWindow.secondS)
			},
		},
		{
			desc: "time offset",
			url:  "/dashlivesim/timeoffset_-3600/testpic/Manifest.mpd",
			check: func(t *testing.T, cfg *ResponseConfig) {
				require.NotNil(t, cfg.TimeOffsetS)
				assert.Equal(t, -3600, *cfg.TimeOffsetS)
			},
		},
		{
			desc:    "bad option value",
			url:     "/dashlivesim/start_abc/testpic/Manifest.mpd",
			wantErr: "key=start",
		},
		{
			desc:    "bad fault window",
			url:     "/dashlivesim/baseurl_u10_x5/testpic/Manifest.mpd",
			wantErr: "bad baseurl fault window",
		},
		{
			desc:    "no content part",
			url:     "/dashlivesim/start_0",
			wantErr: "no content part",
		},
		{
			desc:    "negative tsbd",
			url:     "/dashlivesim/tsbd_-5/testpic/Manifest.mpd",
			wantErr: "timeShiftBufferDepth must be non-negative",
		},
		{
			desc:    "scte35 out of range",
			url:     "/dashlivesim/scte35_7/testpic/Manifest.mpd",
			wantErr: "scte35 per minute must be 0, 1, 2, or 3",
		},
		{
			desc:    "aet before ast",
			url:     "/dashlivesim/start_5000/aet_4000/testpic/Manifest.mpd",
			wantErr: "availabilityEndTime before availabilityStartTime",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			cfg, contentStartIdx, err := processURLCfg(strings.Split(c.url, "/"), nowS)
			if c.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.wantErr)
				return
			}
			require.NoError(t, err)
			urlParts := strings.Split(c.url, "/")
			assert.Equal(t, "testpic", urlParts[contentStartIdx])
			c.check(t, cfg)
		})
	}
}

func TestSetAsset(t *testing.T) {
	cfg := NewResponseConfig()
	a := &asset{InitialDurations: []int{6}}
	cfg.setAsset(a)
	assert.Equal(t, []int{6}, cfg.InitialDurations)
}
