// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grenault73/dash-live-source-simulator/pkg/logging"
)

// livesimHandlerFunc handles mpd, init, and media segment requests.
// ?nowMS=... can be used to set the current time for testing.
func (s *Server) livesimHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	uPath := r.URL.Path
	ext := filepath.Ext(uPath)

	var nowMS int // Set from query string or from wall-clock
	q := r.URL.Query()
	nowMSValue := q.Get("nowMS")
	if nowMSValue != "" {
		var err error
		nowMS, err = strconv.Atoi(nowMSValue)
		if err != nil {
			http.Error(w, "bad nowMS query", http.StatusBadRequest)
			return
		}
	} else {
		nowMS = int(time.Now().UnixMilli())
	}

	urlParts := strings.Split(uPath, "/")
	cfg, contentStartIdx, err := processURLCfg(urlParts, nowMS/1000)
	if err != nil {
		log.Error("processURLCfg", "err", err)
		s.writeSimError(w, log, newErrConfig("url config: %s", err))
		return
	}

	if cfg.TimeOffsetS != nil {
		nowMS += *cfg.TimeOffsetS * 1000
	}

	contentPart := strings.Join(urlParts[contentStartIdx:], "/")
	log.Debug("requested content", "url", contentPart)
	a, ok := s.assetMgr.findAsset(contentPart)
	if !ok {
		http.Error(w, "unknown asset", http.StatusNotFound)
		return
	}
	cfg.setAsset(a)

	switch ext {
	case ".mpd":
		err = s.writeLiveMPD(w, cfg, a, nowMS)
	case ".mp4":
		err = s.writeInitSegment(w, cfg, a, contentPart, nowMS)
	case ".m4s":
		err = s.writeMediaSegment(r, w, cfg, a, contentPart, nowMS)
	default:
		http.Error(w, "unknown file extension", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeSimError(w, log, err)
	}
}

// writeSimError maps the timing-engine errors to HTTP status codes.
func (s *Server) writeSimError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		tooEarly errTooEarly
		tooLate  errTooLate
		outRange errSegmentRange
		fault    errFaultInjected
		badCfg   errConfig
	)
	switch {
	case errors.As(err, &tooEarly):
		http.Error(w, tooEarly.Error(), http.StatusTooEarly)
	case errors.As(err, &tooLate):
		http.Error(w, tooLate.Error(), http.StatusGone)
	case errors.As(err, &outRange):
		http.Error(w, outRange.Error(), http.StatusNotFound)
	case errors.Is(err, errNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.As(err, &fault):
		http.Error(w, fault.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &badCfg):
		log.Error("bad configuration", "err", err)
		http.Error(w, badCfg.Error(), http.StatusInternalServerError)
	default:
		log.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) writeLiveMPD(w http.ResponseWriter, cfg *ResponseConfig, a *asset, nowMS int) error {
	nowS := nowMS / 1000
	// A dynamic MPD with a future availabilityStartTime is valid, so the
	// rotation is pinned to the stream start until the clock reaches it.
	rotNowS := nowS
	if rotNowS < cfg.AvailabilityStartTimeS {
		rotNowS = cfg.AvailabilityStartTimeS
	}
	rot, err := scheduleRotation(a.Vods, rotNowS, cfg.AvailabilityStartTimeS)
	if err != nil {
		return err
	}
	mpd, err := LiveMPD(a, cfg, rot, nowMS)
	if err != nil {
		return err
	}
	buf := bytes.Buffer{}
	if _, err := mpd.Write(&buf, "  ", true); err != nil {
		return err
	}
	out, err := postProcessMPD(buf.Bytes(), cfg)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/dash+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	_, err = w.Write(out)
	return err
}

func (s *Server) writeInitSegment(w http.ResponseWriter, cfg *ResponseConfig, a *asset,
	contentPart string, nowMS int) error {

	if err := checkInitAvailability(cfg, nowMS); err != nil {
		return err
	}
	reps, err := repsFromContentPart(a, contentPart)
	if err != nil {
		return err
	}
	var data []byte
	switch len(reps) {
	case 1:
		data = reps[0].initBytes
	case 2:
		data, err = muxInitSegments(reps[0].initBytes, reps[1].initBytes)
		if err != nil {
			return err
		}
	default:
		return newErrConfig("bad nr of representations: %d", len(reps))
	}
	w.Header().Set("Content-Type", reps[0].SegmentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, err = w.Write(data)
	return err
}

func (s *Server) writeMediaSegment(r *http.Request, w http.ResponseWriter, cfg *ResponseConfig,
	a *asset, contentPart string, nowMS int) error {

	nowS := nowMS / 1000
	if err := checkFault(cfg, nowS); err != nil {
		return err
	}
	rot, err := scheduleRotation(a.Vods, nowS, cfg.AvailabilityStartTimeS)
	if err != nil {
		return err
	}
	reps, err := repsFromContentPart(a, contentPart)
	if err != nil {
		return err
	}
	_, fileName := path.Split(contentPart)
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	segDurS := rot.active().SegmentDurS
	segNr, err := segNrFromStem(stem, segDurS, reps[0].Timescale)
	if err != nil {
		return err
	}
	if err := checkMediaAvailability(cfg, segDurS, segNr, nowMS); err != nil {
		return err
	}
	dec, err := mapSegment(cfg, rot, segNr)
	if err != nil {
		return err
	}
	data, _, err := dispatchSegment(s.assetMgr.vodFS, a, cfg, rot, dec, segNr, reps)
	if err != nil {
		return err
	}
	if !cfg.NoDelayFlag {
		s.delayer(r.Context())
	}
	w.Header().Set("Content-Type", reps[0].SegmentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, err = w.Write(data)
	return err
}

// repsFromContentPart resolves the representation directory of a segment
// URL like assetPath/V300/42.m4s or assetPath/V300-A48/42.m4s.
func repsFromContentPart(a *asset, contentPart string) ([]*RepData, error) {
	segmentPart := strings.TrimPrefix(contentPart, a.AssetPath)
	segmentPart = strings.TrimPrefix(segmentPart, "/")
	repPart, _, ok := strings.Cut(segmentPart, "/")
	if !ok {
		return nil, errNotFound
	}
	return a.findReps(repPart)
}
