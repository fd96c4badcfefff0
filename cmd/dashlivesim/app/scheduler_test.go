package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRotationSingleAsset(t *testing.T) {
	catalog := []VodAsset{
		{Name: "clip0", SegmentDurS: 2, WrapSeconds: 20},
	}
	cases := []struct {
		desc          string
		nowS          int
		astS          int
		wantStartFrom int
	}{
		{desc: "start of stream", nowS: 0, astS: 0, wantStartFrom: 0},
		{desc: "inside first loop", nowS: 15, astS: 0, wantStartFrom: 0},
		{desc: "second loop", nowS: 25, astS: 0, wantStartFrom: 20},
		{desc: "many loops with ast", nowS: 1000 + 47, astS: 1000, wantStartFrom: 40},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			rot, err := scheduleRotation(catalog, c.nowS, c.astS)
			require.NoError(t, err)
			// single-asset catalogs never rotate
			require.Len(t, rot.vods, 1)
			assert.Equal(t, "clip0", rot.active().Name)
			assert.Equal(t, c.wantStartFrom, rot.startFromAstS)
			assert.Equal(t, 20, rot.loopDurS)
		})
	}
}

func TestScheduleRotationMultiAsset(t *testing.T) {
	catalog := []VodAsset{
		{Name: "clip0", SegmentDurS: 2, WrapSeconds: 20},
		{Name: "clip1", SegmentDurS: 2, WrapSeconds: 30},
	}
	cases := []struct {
		desc          string
		nowS          int
		wantFirst     string
		wantStartFrom int
	}{
		{desc: "first clip active", nowS: 5, wantFirst: "clip0", wantStartFrom: 0},
		// rem just above the first wrap: previous loop's tail moves to the front
		{desc: "just past first wrap", nowS: 21, wantFirst: "clip1", wantStartFrom: -30},
		{desc: "second clip active", nowS: 30, wantFirst: "clip1", wantStartFrom: 20},
		// rem beyond the rotated first wrap rotates back to the loop anchor
		{desc: "late in second clip", nowS: 35, wantFirst: "clip0", wantStartFrom: 0},
		{desc: "second loop first clip", nowS: 52, wantFirst: "clip0", wantStartFrom: 50},
		{desc: "second loop second clip", nowS: 80, wantFirst: "clip1", wantStartFrom: 70},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			rot, err := scheduleRotation(catalog, c.nowS, 0)
			require.NoError(t, err)
			assert.Equal(t, c.wantFirst, rot.active().Name)
			assert.Equal(t, c.wantStartFrom, rot.startFromAstS)
		})
	}
}

// The rotated view must redistribute content, never lose it.
func TestRotationConservation(t *testing.T) {
	catalog := []VodAsset{
		{Name: "a", SegmentDurS: 2, WrapSeconds: 10},
		{Name: "b", SegmentDurS: 2, WrapSeconds: 14},
		{Name: "c", SegmentDurS: 2, WrapSeconds: 6},
	}
	totalWrap := 0
	for _, v := range catalog {
		totalWrap += v.WrapSeconds
	}
	for nowS := 0; nowS < 3*totalWrap; nowS += 1 {
		rot, err := scheduleRotation(catalog, nowS, 0)
		require.NoError(t, err)
		require.NotEmpty(t, rot.vods)
		rotTotal := 0
		seen := make(map[string]bool)
		for _, v := range rot.vods {
			rotTotal += v.WrapSeconds
			seen[v.Name] = true
		}
		assert.Equal(t, totalWrap, rotTotal, "nowS=%d", nowS)
		assert.Len(t, seen, len(catalog), "nowS=%d", nowS)
	}
}

func TestScheduleRotationErrors(t *testing.T) {
	_, err := scheduleRotation(nil, 0, 0)
	var cfgErr errConfig
	require.ErrorAs(t, err, &cfgErr)

	_, err = scheduleRotation([]VodAsset{{Name: "zero", SegmentDurS: 2}}, 0, 0)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "total loop duration is zero", err.Error())
}

func TestFloorDivMod(t *testing.T) {
	cases := []struct {
		a, b     int
		wantDiv  int
		wantMod  int
	}{
		{7, 3, 2, 1},
		{-7, 3, -3, 2},
		{6, 3, 2, 0},
		{-6, 3, -2, 0},
		{0, 5, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantDiv, floorDiv(c.a, c.b), "floorDiv(%d, %d)", c.a, c.b)
		assert.Equal(t, c.wantMod, floorMod(c.a, c.b), "floorMod(%d, %d)", c.a, c.b)
	}
}
