// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"github.com/chewxy/math32"
)

type Number interface {
	int64 | float64 | float32 | int
}

// Clamp limits val to [min,max]. NaN values are returned unchanged.
func Clamp[K Number](min, val, max K) K {
	if min > val {
		return min
	} else if max < val {
		return max
	}
	return val
}

// Finite reports whether all values are neither NaN nor infinite.
func Finite(vs ...float32) bool {
	for _, v := range vs {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func Deg2Rad(deg float32) float32 {
	return deg * math32.Pi / 180
}
