// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
)

const assetCfgName = "asset.json"

func newAssetMgr(vodFS fs.FS) *assetMgr {
	return &assetMgr{
		vodFS:  vodFS,
		assets: make(map[string]*asset),
	}
}

// assetMgr loads and caches all assets at startup. The catalog is
// read-only for the lifetime of the process.
type assetMgr struct {
	vodFS  fs.FS
	assets map[string]*asset // keyed by asset path
}

// findAsset finds the asset by matching uri against all asset paths.
func (am *assetMgr) findAsset(uri string) (*asset, bool) {
	for assetPath := range am.assets {
		if uri == assetPath || strings.HasPrefix(uri, assetPath+"/") {
			return am.assets[assetPath], true
		}
	}
	return nil, false
}

// discoverAssets walks the VoD file tree and loads all directories
// containing an asset configuration file.
func (am *assetMgr) discoverAssets(logger *slog.Logger) error {
	err := fs.WalkDir(am.vodFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Base(p) != assetCfgName {
			return nil
		}
		if lErr := am.loadAsset(logger, p); lErr != nil {
			logger.Warn("asset loading problem. Skipping", "asset", p, "err", lErr.Error())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("searching asset configs: %w", err)
	}
	if len(am.assets) == 0 {
		return fmt.Errorf("no compatible assets found")
	}
	return nil
}

func (am *assetMgr) loadAsset(logger *slog.Logger, cfgPath string) error {
	assetPath := path.Dir(cfgPath)
	if assetPath == "." {
		assetPath = ""
	}
	logger = logger.With("assetPath", assetPath)

	data, err := fs.ReadFile(am.vodFS, cfgPath)
	if err != nil {
		return fmt.Errorf("read asset config: %w", err)
	}
	a := asset{AssetPath: assetPath}
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("unmarshal asset config: %w", err)
	}
	if err := a.verify(); err != nil {
		return fmt.Errorf("asset %q: %w", assetPath, err)
	}

	mpdPath := path.Join(assetPath, a.MPDName)
	mpdData, err := fs.ReadFile(am.vodFS, mpdPath)
	if err != nil {
		return fmt.Errorf("read MPD %q: %w", mpdPath, err)
	}
	a.MPDStr = string(mpdData)

	for _, rep := range a.Reps {
		if err := rep.loadInit(am.vodFS, assetPath); err != nil {
			return fmt.Errorf("rep %s: %w", rep.ID, err)
		}
	}
	am.assets[assetPath] = &a
	logger.Info("asset loaded", "loopDurS", a.loopDurS(), "vods", len(a.Vods))
	return nil
}

// asset is one content directory: an ordered sequence of VoD source clips
// sharing one set of representations. The clip segments are stored
// consecutively in each representation directory, so firstSegmentInLoop
// separates the clips. Immutable once loaded.
type asset struct {
	AssetPath string `json:"-"`
	MPDName   string `json:"mpd"`
	// InitialDurations lists boundaries (seconds) supporting a
	// non-uniform first loop.
	InitialDurations []int      `json:"initialDurationsS,omitempty"`
	Vods             []VodAsset `json:"vods"`
	Reps             []*RepData `json:"representations"`
	MPDStr           string     `json:"-"`
}

// VodAsset is one stored source clip in the loop.
type VodAsset struct {
	Name               string `json:"name"`
	SegmentDurS        int    `json:"segmentDurationS"`
	WrapSeconds        int    `json:"wrapSeconds"`
	FirstSegmentInLoop int    `json:"firstSegmentInLoop"`
	// TotalDurationS is the playable duration advertised in the clip's period.
	TotalDurationS int `json:"totalDurationS"`
}

// segmentsInLoop is the number of segments before the clip's content repeats.
func (v VodAsset) segmentsInLoop() int {
	return v.WrapSeconds / v.SegmentDurS
}

// Representation data shared by all clips of an asset.
type RepData struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	Timescale   int    `json:"timescale"`
	// Group is the muxing group key. Reps in the same group can be
	// combined into one dual-representation response.
	Group string `json:"group,omitempty"`

	initBytes []byte
	initSeg   *mp4.InitSegment
}

func (rd *RepData) isVideo() bool {
	return rd.ContentType == "video"
}

func (rd *RepData) isSubtitle() bool {
	return rd.ContentType == "subtitles" || rd.ContentType == "text"
}

// SegmentType returns the MIME type for media segments of this representation.
func (rd *RepData) SegmentType() string {
	switch rd.ContentType {
	case "audio":
		return "audio/mp4"
	case "subtitles", "text":
		return "application/mp4"
	default:
		return "video/mp4"
	}
}

// loadInit reads and decodes the representation's init segment.
func (rd *RepData) loadInit(vodFS fs.FS, assetPath string) error {
	initPath := path.Join(assetPath, rd.ID, "init.mp4")
	data, err := fs.ReadFile(vodFS, initPath)
	if err != nil {
		return fmt.Errorf("read init segment: %w", err)
	}
	sr := bits.NewFixedSliceReader(data)
	f, err := mp4.DecodeFileSR(sr)
	if err != nil {
		return fmt.Errorf("decode init segment: %w", err)
	}
	if f.Init == nil {
		return fmt.Errorf("no moov box in %s", initPath)
	}
	rd.initBytes = data
	rd.initSeg = f.Init
	return nil
}

func (a *asset) verify() error {
	if a.MPDName == "" {
		return fmt.Errorf("no mpd name")
	}
	if len(a.Vods) == 0 {
		return fmt.Errorf("no vod clips")
	}
	for _, v := range a.Vods {
		if v.SegmentDurS <= 0 {
			return fmt.Errorf("clip %q: segment duration must be positive", v.Name)
		}
		if v.WrapSeconds <= 0 {
			return fmt.Errorf("clip %q: wrap duration must be positive", v.Name)
		}
		if v.WrapSeconds%v.SegmentDurS != 0 {
			return fmt.Errorf("clip %q: wrap duration not a multiple of segment duration", v.Name)
		}
	}
	if len(a.Reps) == 0 {
		return fmt.Errorf("no representations")
	}
	for _, r := range a.Reps {
		if r.Timescale <= 0 {
			return fmt.Errorf("rep %q: timescale must be positive", r.ID)
		}
	}
	return nil
}

// loopDurS is the total duration of one traversal of all clips.
func (a *asset) loopDurS() int {
	total := 0
	for _, v := range a.Vods {
		total += v.WrapSeconds
	}
	return total
}

func (a *asset) findRep(id string) (*RepData, bool) {
	for _, r := range a.Reps {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// refRep is the representation whose timescale drives period arithmetic.
// Video is preferred, matching how the MPD periods are derived.
func (a *asset) refRep() *RepData {
	for _, r := range a.Reps {
		if r.isVideo() {
			return r
		}
	}
	return a.Reps[0]
}

// findReps resolves a path part like "V300" or "V300-A48" into one or two
// representations. Two representations must belong to the same group.
func (a *asset) findReps(part string) ([]*RepData, error) {
	ids := strings.Split(part, "-")
	reps := make([]*RepData, 0, len(ids))
	for _, id := range ids {
		rep, ok := a.findRep(id)
		if !ok {
			return nil, errNotFound
		}
		reps = append(reps, rep)
	}
	switch len(reps) {
	case 1:
		return reps, nil
	case 2:
		if reps[0].Group != reps[1].Group {
			return nil, newErrConfig("representations %s and %s are not in the same group",
				reps[0].ID, reps[1].ID)
		}
		return reps, nil
	default:
		return nil, newErrConfig("bad nr of representations: %d", len(reps))
	}
}
