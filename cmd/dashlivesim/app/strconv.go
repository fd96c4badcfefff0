// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"strconv"
	"strings"
)

// strConvAccErr accumulates the first conversion error so that URL option
// parsing can run straight through and report once.
type strConvAccErr struct {
	err error
}

func (s *strConvAccErr) Atoi(key, val string) int {
	if s.err != nil {
		return 0
	}
	valInt, err := strconv.Atoi(val)
	if err != nil {
		s.err = fmt.Errorf("key=%s, err=%w", key, err)
		return 0
	}
	return valInt
}

func (s *strConvAccErr) AtoiPtr(key, val string) *int {
	if s.err != nil {
		return nil
	}
	valInt, err := strconv.Atoi(val)
	if err != nil {
		s.err = fmt.Errorf("key=%s, err=%w", key, err)
		return nil
	}
	return &valInt
}

// AtoiList parses a comma-separated list of integers.
func (s *strConvAccErr) AtoiList(key, val string) []int {
	if s.err != nil {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		out = append(out, s.Atoi(key, p))
	}
	if s.err != nil {
		return nil
	}
	return out
}

// AtofPos parses a non-negative floating point number.
func (s *strConvAccErr) AtofPos(key, val string) float64 {
	if s.err != nil {
		return 0
	}
	valFloat, err := strconv.ParseFloat(val, 64)
	if err != nil {
		s.err = fmt.Errorf("key=%s, err=%w", key, err)
		return 0
	}
	if valFloat < 0 {
		s.err = fmt.Errorf("key=%s, val=%s must be non-negative", key, val)
		return 0
	}
	return valFloat
}
