package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRotation(segDurS, wrapS int) rotation {
	return rotation{
		vods: []VodAsset{
			{Name: "clip0", SegmentDurS: segDurS, WrapSeconds: wrapS},
		},
		loopDurS: wrapS,
	}
}

func TestMapSegment(t *testing.T) {
	cfg := NewResponseConfig()
	rot := newTestRotation(2, 20) // 10 segments per loop

	cases := []struct {
		desc          string
		segNr         int
		wantLocalNr   int
		wantNrInLoop  int
		wantOffset    int
		wantMediaTime int
	}{
		{desc: "first segment", segNr: 0, wantLocalNr: 0, wantNrInLoop: 0, wantOffset: 0, wantMediaTime: 0},
		{desc: "mid loop", segNr: 7, wantLocalNr: 7, wantNrInLoop: 7, wantOffset: 0, wantMediaTime: 14},
		{desc: "last in first loop", segNr: 9, wantLocalNr: 9, wantNrInLoop: 9, wantOffset: 0, wantMediaTime: 18},
		{desc: "first in second loop", segNr: 10, wantLocalNr: 0, wantNrInLoop: 0, wantOffset: 20, wantMediaTime: 20},
		{desc: "deep in stream", segNr: 1234, wantLocalNr: 4, wantNrInLoop: 4, wantOffset: 2460, wantMediaTime: 2468},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			td, err := mapSegment(cfg, rot, c.segNr)
			require.NoError(t, err)
			assert.Equal(t, c.wantLocalNr, td.LocalSegNr)
			assert.Equal(t, c.wantNrInLoop, td.SegNrInLoop)
			assert.Equal(t, c.wantOffset, td.OffsetAtLoopStartS)
			assert.Equal(t, c.wantMediaTime, td.mediaTimeS(2))
			assert.Equal(t, 0, td.VodIdx)
			assert.False(t, td.IsLast)
		})
	}
}

func TestMapSegmentDeterminism(t *testing.T) {
	cfg := NewResponseConfig()
	cfg.AvailabilityStartTimeS = 1700000000
	rot := newTestRotation(4, 60)
	first, err := mapSegment(cfg, rot, 4711)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := mapSegment(cfg, rot, 4711)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Segment numbers one loop apart map to the same stored segment with an
// offset differing by exactly the wrap duration.
func TestMapSegmentLoopPeriodicity(t *testing.T) {
	cfg := NewResponseConfig()
	segDurS, wrapS := 2, 30
	rot := newTestRotation(segDurS, wrapS)
	segsPerLoop := wrapS / segDurS
	for nr := 0; nr < 3*segsPerLoop; nr++ {
		td1, err := mapSegment(cfg, rot, nr)
		require.NoError(t, err)
		td2, err := mapSegment(cfg, rot, nr+segsPerLoop)
		require.NoError(t, err)
		assert.Equal(t, td1.LocalSegNr, td2.LocalSegNr, "nr=%d", nr)
		assert.Equal(t, wrapS, td2.OffsetAtLoopStartS-td1.OffsetAtLoopStartS, "nr=%d", nr)
	}
}

func TestMapSegmentBoundaries(t *testing.T) {
	cfg := NewResponseConfig()
	cfg.StartNr = -1 // implicit startNumber == 1
	rot := newTestRotation(2, 20)

	_, err := mapSegment(cfg, rot, 0)
	var rangeErr errSegmentRange
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "request for segment 0 before first 1", err.Error())

	cfg = NewResponseConfig()
	cfg.LastSegmentNumbers = []int{5, 8}
	_, err = mapSegment(cfg, rot, 9)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "request for segment 9 beyond last (8)", err.Error())

	td, err := mapSegment(cfg, rot, 8)
	require.NoError(t, err)
	assert.True(t, td.IsLast)
	td, err = mapSegment(cfg, rot, 5)
	require.NoError(t, err)
	assert.True(t, td.IsLast)
	td, err = mapSegment(cfg, rot, 6)
	require.NoError(t, err)
	assert.False(t, td.IsLast)
}

func TestMapSegmentInitialDurations(t *testing.T) {
	cfg := NewResponseConfig()
	cfg.InitialDurations = []int{6, 14} // only the first boundary is consulted
	rot := newTestRotation(2, 20)

	td, err := mapSegment(cfg, rot, 2) // segTime 4 < 6
	require.NoError(t, err)
	assert.Equal(t, 2, td.SegNrInLoop)
	assert.Equal(t, 0, td.OffsetAtLoopStartS)

	td, err = mapSegment(cfg, rot, 4) // segTime 8 >= 6
	require.NoError(t, err)
	assert.Equal(t, 1, td.SegNrInLoop)
	assert.Equal(t, 6, td.OffsetAtLoopStartS)
	assert.Equal(t, 8, td.mediaTimeS(2))
}

func TestSegNrFromStem(t *testing.T) {
	cases := []struct {
		stem      string
		segDurS   int
		timescale int
		wantNr    int
		wantErr   bool
	}{
		{stem: "42", segDurS: 4, timescale: 90000, wantNr: 42},
		{stem: "t0", segDurS: 4, timescale: 90000, wantNr: 0},
		{stem: "t360000", segDurS: 4, timescale: 90000, wantNr: 1},
		{stem: "t359999", segDurS: 4, timescale: 90000, wantNr: 1}, // rounds to nearest
		{stem: "t180000", segDurS: 4, timescale: 90000, wantNr: 1}, // half-way rounds up
		{stem: "bad", segDurS: 4, timescale: 90000, wantErr: true},
		{stem: "tbad", segDurS: 4, timescale: 90000, wantErr: true},
	}
	for _, c := range cases {
		nr, err := segNrFromStem(c.stem, c.segDurS, c.timescale)
		if c.wantErr {
			assert.Error(t, err, "stem %q", c.stem)
			continue
		}
		require.NoError(t, err, "stem %q", c.stem)
		assert.Equal(t, c.wantNr, nr, "stem %q", c.stem)
	}
}

// The live edge derived for the manifest must be exactly the newest
// segment the availability gate accepts.
func TestLiveEdgeAgreesWithAvailability(t *testing.T) {
	cfg := NewResponseConfig()
	segDurS := 4
	for nowS := 4; nowS < 200; nowS += 3 {
		edge := liveEdgeSegNr(cfg, segDurS, nowS)
		err := checkMediaAvailability(cfg, segDurS, edge, nowS*1000)
		assert.NoError(t, err, "live edge %d at now %d rejected", edge, nowS)
		err = checkMediaAvailability(cfg, segDurS, edge+1, nowS*1000)
		assert.Error(t, err, "segment %d past live edge at now %d accepted", edge+1, nowS)
	}
}
