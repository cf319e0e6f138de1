// SPDX-License-Identifier: GPL-2.0-or-later

package vec

import (
	"testing"

	"github.com/chewxy/math32"
)

var (
	NULL = Vec3{}
)

func TestLength(t *testing.T) {
	if NULL.Length() != 0 {
		t.Errorf("Null vector has not 0 length")
	}
	for _, v := range []Vec3{{2, 2, 1}, {2, 1, 2}, {1, 2, 2}} {
		if v.Length() != 3 {
			t.Errorf("%v Length is not 3", v)
		}
	}
}

func TestAddSub(t *testing.T) {
	v := Vec3{1, 2, 3}
	if got := Add(NULL, v); got != v {
		t.Errorf("Add(%v,%v) = %v want %v", NULL, v, got, v)
	}
	v2 := Vec3{9, 7, 5}
	got := Sub(v2, v)
	want := Vec3{8, 5, 2}
	if got != want {
		t.Errorf("Sub(%v,%v) = %v want %v", v2, v, got, want)
	}
}

func TestCross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := Cross(x, y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Cross(%v,%v) = %v want %v", x, y, got, want)
	}
}

func TestNormalize(t *testing.T) {
	if got := NULL.Normalize(); got != NULL {
		t.Errorf("NULL.Normalize() = %v", got)
	}
	v := Vec3{0, 0, -4}
	got := v.Normalize()
	want := Vec3{0, 0, -1}
	if got != want {
		t.Errorf("%v.Normalize() = %v want %v", v, got, want)
	}
}

func TestDistance(t *testing.T) {
	a := Vec3{0, 0, 2}
	b := Vec3{0, 0, -4}
	if got := Distance(a, b); got != 6 {
		t.Errorf("Distance(%v,%v) = %v want 6", a, b, got)
	}
}

func TestFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).Finite() {
		t.Errorf("finite vector reported as non finite")
	}
	if (Vec3{1, math32.NaN(), 3}).Finite() {
		t.Errorf("NaN vector reported as finite")
	}
}
