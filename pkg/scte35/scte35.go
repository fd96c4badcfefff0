// Package scte35 implements parts of SCTE-35 according to SCTE-214-1 from 2022.
package scte35

import (
	"errors"

	"github.com/Comcast/gots/v2"
	"github.com/Comcast/gots/v2/scte35"
	"github.com/Eyevinn/mp4ff/mp4"
)

const (
	SchemeIDURI = "urn:scte:scte35:2013:bin"

	// announceAheadS is how long before the splice time the emsg is sent.
	announceAheadS = 7
)

// IsValidInterval returns an error unless adsPerMinute is 1, 2, or 3.
func IsValidInterval(adsPerMinute int) error {
	switch adsPerMinute {
	case 1, 2, 3:
		return nil
	default:
		return errors.New("scte35 per minute must be 1, 2, or 3")
	}
}

// spliceSchedule returns the splice start offsets within a minute and the
// ad duration, both in units of timescale.
// 1: 10s after full minute (20s duration)
// 2: 10s and 40s after full minute (10s duration)
// 3: 10s, 36s, 46s after full minute (10s duration)
func spliceSchedule(perMinute int, timescale uint64) (starts []uint64, adDuration uint64) {
	switch perMinute {
	case 1:
		return []uint64{10 * timescale}, 20 * timescale
	case 2:
		return []uint64{10 * timescale, 40 * timescale}, 10 * timescale
	default:
		return []uint64{10 * timescale, 36 * timescale, 46 * timescale}, 10 * timescale
	}
}

// CreateEmsgAhead generates an emsg SCTE-35 box if the segment covers the
// announce time 7s before an ad start. The ad cadence repeats every minute.
func CreateEmsgAhead(segStart, segEnd, timescale uint64, perMinute int) (*mp4.EmsgBox, error) {
	if err := IsValidInterval(perMinute); err != nil {
		return nil, err
	}
	minuteStart := segStart - segStart%(60*timescale)
	starts, adDuration := spliceSchedule(perMinute, timescale)
	// No need to look into the next minute since the first start is 10s
	// after the full minute.
	var spliceTime uint64
	inInterval := false
	for _, start := range starts {
		announceTime := minuteStart + start - announceAheadS*timescale
		if segStart < announceTime && announceTime <= segEnd {
			inInterval = true
			spliceTime = minuteStart + start
			break
		}
	}
	if !inInterval {
		return nil, nil
	}
	emsgID := spliceTime / timescale
	p := SpliceInsertParams{
		PtsTime:                    uint64(spliceTime*90000/timescale) % (1 << 33),
		Duration:                   uint64(adDuration * 90000 / timescale),
		SpliceEventID:              uint32(emsgID),
		Tier:                       4095,
		UniqueProgramID:            0,
		AvailNum:                   0,
		AvailsExpected:             0,
		SpliceEventCancelIndicator: false,
		OutOfNetworkIndicator:      true,
		SpliceImmediateFlag:        false,
		AutoReturn:                 true,
	}
	e := mp4.EmsgBox{
		Version:          1,
		Flags:            0,
		TimeScale:        uint32(timescale),
		PresentationTime: uint64(spliceTime),
		EventDuration:    uint32(adDuration),
		ID:               uint32(emsgID),
		SchemeIDURI:      SchemeIDURI,
		Value:            "",
		MessageData:      CreateSpliceInsertPayload(p),
	}
	return &e, nil
}

type SpliceInsertParams struct {
	PtsTime                    uint64
	Duration                   uint64
	SpliceEventID              uint32
	Tier                       uint16
	UniqueProgramID            uint16
	AvailNum                   uint8
	AvailsExpected             uint8
	SpliceEventCancelIndicator bool
	OutOfNetworkIndicator      bool
	SpliceImmediateFlag        bool
	AutoReturn                 bool
}

// CreateSpliceInsertPayload creates a SCTE-35 splice_info_section including CRC.
func CreateSpliceInsertPayload(p SpliceInsertParams) []byte {
	s := scte35.CreateSCTE35()
	s.SetTier(uint16(p.Tier))
	cmd := scte35.CreateSpliceInsertCommand()
	cmd.SetUniqueProgramId(p.UniqueProgramID)
	cmd.SetEventID(p.SpliceEventID)
	cmd.SetAvailNum(p.AvailNum)
	cmd.SetAvailsExpected(p.AvailsExpected)
	cmd.SetIsEventCanceled(p.SpliceEventCancelIndicator)
	if p.Duration != 0 {
		cmd.SetHasDuration(true)
		cmd.SetDuration(gots.PTS(p.Duration))
		cmd.SetIsAutoReturn(p.AutoReturn)
	}
	cmd.SetHasPTS(true)
	cmd.SetPTS(gots.PTS(p.PtsTime))
	cmd.SetIsOut(p.OutOfNetworkIndicator)
	cmd.SetSpliceImmediate(p.SpliceImmediateFlag)
	s.SetCommandInfo(cmd)
	return s.UpdateData()
}
