package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPeriods(t *testing.T) {
	rot := rotation{
		vods: []VodAsset{
			{Name: "clip0", SegmentDurS: 2, WrapSeconds: 20, TotalDurationS: 20},
			{Name: "clip1", SegmentDurS: 2, WrapSeconds: 30, TotalDurationS: 30},
		},
		startFromAstS: 50,
		loopDurS:      50,
	}
	cfg := NewResponseConfig()
	timescale := 90000

	periods := buildPeriods(rot, cfg, timescale)
	require.Len(t, periods, 2)

	assert.Equal(t, "p50", periods[0].ID)
	assert.Equal(t, 50, periods[0].StartS)
	assert.Equal(t, 20, periods[0].DurationS)
	assert.Equal(t, 25, periods[0].StartNumber)
	assert.Equal(t, uint64(50*90000), periods[0].PresentationTimeOffset)

	assert.Equal(t, "p70", periods[1].ID)
	assert.Equal(t, 70, periods[1].StartS)
	assert.Equal(t, 30, periods[1].DurationS)
	assert.Equal(t, 35, periods[1].StartNumber)
	assert.Equal(t, uint64(70*90000), periods[1].PresentationTimeOffset)
}

// Each period's startNumber must address exactly the segments the mapper
// accepts for the covered interval.
func TestPeriodStartNumberAgreesWithMapper(t *testing.T) {
	cfg := NewResponseConfig()
	catalog := []VodAsset{{Name: "clip0", SegmentDurS: 2, WrapSeconds: 20, TotalDurationS: 20}}
	for nowS := 0; nowS < 100; nowS += 7 {
		rot, err := scheduleRotation(catalog, nowS, 0)
		require.NoError(t, err)
		periods := buildPeriods(rot, cfg, 90000)
		require.NotEmpty(t, periods)
		p := periods[0]
		td, err := mapSegment(cfg, rot, p.StartNumber)
		require.NoError(t, err)
		// the first segment of a period starts at the period start
		assert.Equal(t, p.StartS, td.mediaTimeS(2), "nowS=%d", nowS)
	}
}

func TestBuildMPDTiming(t *testing.T) {
	cfg := NewResponseConfig()
	td := buildMPDTiming(cfg, 45)
	assert.Equal(t, "P100Y", td.MinimumUpdatePeriod)
	assert.Equal(t, "PT60S", td.TimeShiftBufferDepth)
	assert.Equal(t, 60, td.TimeShiftBufferDepthInS)
	assert.Equal(t, "1970-01-01T00:00:00Z", td.AvailabilityStartTime)
	assert.Equal(t, "1970-01-01T00:00:00Z", td.PublishTime)
	assert.Equal(t, 0, td.PresentationTimeOffset)
	assert.Equal(t, -1.0, td.AvailabilityTimeOffset)
	assert.Empty(t, td.AvailabilityEndTime)
	assert.Empty(t, td.MediaPresentationDuration)

	cfg.MinimumUpdatePeriodS = Ptr(30)
	cfg.MediaPresentationDurS = Ptr(600)
	cfg.AvailabilityEndTimeS = Ptr(86400)
	td = buildMPDTiming(cfg, 45)
	assert.Equal(t, "PT30S", td.MinimumUpdatePeriod)
	assert.Equal(t, "PT600S", td.MediaPresentationDuration)
	assert.Equal(t, "1970-01-02T00:00:00Z", td.AvailabilityEndTime)
}

func TestPublishTimeAtRequest(t *testing.T) {
	cfg := NewResponseConfig()
	cfg.AvailabilityStartTimeS = 30
	td := buildMPDTiming(cfg, 90)
	// publishTime defaults to the stream start
	assert.Equal(t, "1970-01-01T00:00:30Z", td.PublishTime)

	cfg.PublishTimeAtRequest = true
	td = buildMPDTiming(cfg, 90)
	assert.Equal(t, "1970-01-01T00:01:30Z", td.PublishTime)
}
