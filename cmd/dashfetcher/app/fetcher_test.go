// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"testing"

	m "github.com/Eyevinn/dash-mpd/mpd"
	"github.com/stretchr/testify/require"
)

func TestAutoDir(t *testing.T) {
	cases := []struct {
		rawURL     string
		outDir     string
		subDirs    []string
		wantedPath string
	}{
		{
			rawURL:     "https://dash.akamaized.net/WAVE/vectors/cfhd_sets/12.5_25_50/t1/2022-10-17/stream.mpd",
			outDir:     "/home/user/content",
			wantedPath: "/home/user/content/WAVE/vectors/cfhd_sets/12.5_25_50/t1/2022-10-17",
		},
		{
			rawURL:     "https://dash.akamaized.net/WAVE/vectors/cfhd_sets/12.5_25_50/t1/2022-10-17/stream.mpd",
			outDir:     "/home/user/content/WAVE/vectors",
			wantedPath: "/home/user/content/WAVE/vectors/cfhd_sets/12.5_25_50/t1/2022-10-17",
		},
		{
			rawURL:     "https://dash.akamaized.net/WAVE/stream.mpd",
			outDir:     "/home/user/content/WAVE/vectors",
			wantedPath: "/home/user/content/WAVE/vectors/WAVE",
		},
	}
	for _, tc := range cases {
		outPath, err := AutoDir(tc.rawURL, tc.outDir)
		require.NoError(t, err)
		require.Equal(t, tc.wantedPath, outPath)
	}

}

func TestAddRepConfig(t *testing.T) {
	aCfg := assetConfig{MPDName: "stream.mpd"}
	dur := uint32(180000)
	timescale := uint32(90000)
	startNr := uint32(1)
	segTmpl := &m.SegmentTemplateType{}
	segTmpl.Duration = &dur
	segTmpl.StartNumber = &startNr
	segTmpl.Timescale = &timescale
	addRepConfig(&aCfg, "video", "V300", segTmpl, 21_000)
	require.Len(t, aCfg.Reps, 1)
	require.Equal(t, "V300", aCfg.Reps[0].ID)
	require.Equal(t, 90000, aCfg.Reps[0].Timescale)
	require.Len(t, aCfg.Vods, 1)
	clip := aCfg.Vods[0]
	require.Equal(t, "stream", clip.Name)
	require.Equal(t, 2, clip.SegmentDurS)
	// 21s rounded down to a whole number of 2s segments
	require.Equal(t, 20, clip.WrapSeconds)
	require.Equal(t, 1, clip.FirstSegmentInLoop)

	// a second representation adds no extra clip entry
	addRepConfig(&aCfg, "audio", "A48", segTmpl, 21_000)
	require.Len(t, aCfg.Reps, 2)
	require.Len(t, aCfg.Vods, 1)
}
