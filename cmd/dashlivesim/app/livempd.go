package app

import (
	"fmt"

	"github.com/beevik/etree"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// LiveMPD generates the dynamic MPD for an asset: one period per clip in
// the active rotation, with timing fields derived from the same
// arithmetic the segment mapper uses.
func LiveMPD(a *asset, cfg *ResponseConfig, rot rotation, nowMS int) (*m.MPD, error) {
	nowS := floorDiv(nowMS, 1000)
	timing := buildMPDTiming(cfg, nowS)
	descs := buildPeriods(rot, cfg, a.refRep().Timescale)

	mpd, err := m.ReadFromString(a.MPDStr)
	if err != nil {
		return nil, fmt.Errorf("read VoD MPD: %w", err)
	}
	if len(mpd.Periods) != 1 {
		return nil, fmt.Errorf("VoD MPD has %d periods, not 1", len(mpd.Periods))
	}
	mpd.Type = Ptr("dynamic")
	mpd.MediaPresentationDuration = nil
	if cfg.MediaPresentationDurS != nil {
		mpd.MediaPresentationDuration = m.Seconds2DurPtr(*cfg.MediaPresentationDurS)
	}
	mpd.AvailabilityStartTime = m.DateTime(timing.AvailabilityStartTime)
	mpd.PublishTime = m.DateTime(timing.PublishTime)
	mpd.TimeShiftBufferDepth = m.Seconds2DurPtr(timing.TimeShiftBufferDepthInS)
	mpd.MinimumUpdatePeriod = nil // default written as P100Y in post-processing
	if cfg.MinimumUpdatePeriodS != nil {
		mpd.MinimumUpdatePeriod = m.Seconds2DurPtr(*cfg.MinimumUpdatePeriodS)
	}
	if timing.AvailabilityEndTime != "" {
		mpd.AvailabilityEndTime = m.DateTime(timing.AvailabilityEndTime)
	}

	periods := make([]*m.Period, 0, len(descs))
	for _, desc := range descs {
		p, err := livePeriod(a, cfg, desc)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	mpd.Periods = periods
	return mpd, nil
}

// livePeriod builds one period from a fresh parse of the stored VoD MPD.
func livePeriod(a *asset, cfg *ResponseConfig, desc PeriodDescriptor) (*m.Period, error) {
	vodMPD, err := m.ReadFromString(a.MPDStr)
	if err != nil {
		return nil, fmt.Errorf("read VoD MPD: %w", err)
	}
	period := vodMPD.Periods[0]
	period.Id = desc.ID
	period.Start = m.Seconds2DurPtr(desc.StartS)
	period.Duration = m.Seconds2DurPtr(desc.DurationS)
	for _, as := range period.AdaptationSets {
		st := as.SegmentTemplate
		if st == nil {
			return nil, fmt.Errorf("no SegmentTemplate in %s AdaptationSet", as.ContentType)
		}
		timescale := desc.Timescale
		if len(as.Representations) > 0 {
			if rep, ok := a.findRep(as.Representations[0].Id); ok {
				timescale = rep.Timescale
			}
		}
		st.StartNumber = Ptr(uint32(desc.StartNumber))
		st.Timescale = Ptr(uint32(timescale))
		st.Duration = Ptr(uint32(desc.SegmentDurS * timescale))
		st.PresentationTimeOffset = Ptr(uint64(desc.StartS) * uint64(timescale))
		if cfg.AvailabilityTimeOffsetS >= 0 {
			st.AvailabilityTimeOffset = m.FloatInf64(cfg.AvailabilityTimeOffsetS)
		}
	}
	return period, nil
}

// postProcessMPD patches the serialized MPD tree: the "effectively never"
// default minimumUpdatePeriod (P100Y cannot be expressed as a
// nanosecond duration), and the AssetIdentifier descriptor when ad
// insertion is requested.
func postProcessMPD(data []byte, cfg *ResponseConfig) ([]byte, error) {
	if cfg.MinimumUpdatePeriodS != nil && !cfg.InsertAdFlag {
		return data, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse MPD for post-processing: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no root element in MPD")
	}
	if cfg.MinimumUpdatePeriodS == nil {
		root.CreateAttr("minimumUpdatePeriod", defaultMinimumUpdatePeriod)
	}
	if cfg.InsertAdFlag {
		period := root.SelectElement("Period")
		if period == nil {
			return nil, fmt.Errorf("no Period element in MPD")
		}
		ai := etree.NewElement("AssetIdentifier")
		ai.CreateAttr("schemeIdUri", "urn:org:dashif:asset-id:2013")
		ai.CreateAttr("value", "md:cid:EIDR:10.5240%2f0EFB-02CD-126E-8092-1E49-W")
		period.InsertChildAt(0, ai)
	}
	return doc.WriteToBytes()
}

// Ptr returns a pointer to a value of any type.
func Ptr[T any](v T) *T {
	return &v
}
