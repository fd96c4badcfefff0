// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

// rotation is a read-only view over the asset catalog, rotated so that
// asset-local arithmetic is correct for the present moment. The catalog
// itself is never mutated; rotation is a start index plus a residual
// offset.
type rotation struct {
	vods []VodAsset
	// startFromAstS is where the rotated sequence begins relative to
	// availabilityStartTime, including full loops already played.
	startFromAstS int
	loopDurS      int
}

// active returns the VoD asset that is playing now.
func (r rotation) active() VodAsset {
	return r.vods[0]
}

// scheduleRotation determines which asset in the catalog is active at nowS
// and returns the rotated view. All arithmetic is integer seconds.
//
// A single-asset catalog performs no rotation. A catalog with zero total
// wrap duration is a configuration error.
func scheduleRotation(catalog []VodAsset, nowS, astS int) (rotation, error) {
	n := len(catalog)
	if n == 0 {
		return rotation{}, newErrConfig("empty asset catalog")
	}
	total := 0
	for _, v := range catalog {
		total += v.WrapSeconds
	}
	if total == 0 {
		return rotation{}, newErrConfig("total loop duration is zero")
	}
	loops := floorDiv(nowS-astS, total)
	rem := nowS - astS - loops*total

	startIdx := 0
	startS := 0
	if n > 1 {
		prog := 0
		for _, v := range catalog {
			prog += v.WrapSeconds
			if rem > prog+v.SegmentDurS {
				startIdx = 1
				startS = catalog[0].WrapSeconds
				break
			}
		}
		if rem > catalog[startIdx].WrapSeconds {
			startIdx = (startIdx + n - 1) % n
			startS -= catalog[startIdx].WrapSeconds
		}
	}

	vods := make([]VodAsset, 0, n)
	for i := 0; i < n; i++ {
		vods = append(vods, catalog[(startIdx+i)%n])
	}
	return rotation{
		vods:          vods,
		startFromAstS: startS + loops*total,
		loopDurS:      total,
	}, nil
}

// floorDiv is integer division rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder matching floorDiv, always in [0, b) for b > 0.
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
