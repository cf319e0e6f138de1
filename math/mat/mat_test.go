// SPDX-License-Identifier: GPL-2.0-or-later

package mat

import (
	"testing"

	"github.com/chewxy/math32"

	"anchorsound/math/vec"
)

const (
	e = 1e-6
)

func eq(a Mat4, b [16]float32) bool {
	return ApproxEqual(a, FromArray(b), e)
}

func TestIdentity(t *testing.T) {
	m := Identity()
	if !eq(m, [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}) {
		t.Errorf("Identity broken: %v", m)
	}
}

func TestTranslation(t *testing.T) {
	m := Translation(2, 3, 5)
	if !eq(m, [16]float32{
		1, 0, 0, 2,
		0, 1, 0, 3,
		0, 0, 1, 5,
		0, 0, 0, 1,
	}) {
		t.Errorf("Translation(2,3,5) = %v", m)
	}
	if p := m.Position(); p != (vec.Vec3{X: 2, Y: 3, Z: 5}) {
		t.Errorf("Translation(2,3,5).Position() = %v", p)
	}
}

func TestRotationX(t *testing.T) {
	m := RotationX(90)
	if !eq(m, [16]float32{
		1, 0, 0, 0,
		0, 0, -1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	}) {
		t.Errorf("RotationX(90) = %v", m)
	}
}

func TestRotationY(t *testing.T) {
	m := RotationY(90)
	if !eq(m, [16]float32{
		0, 0, 1, 0,
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 0, 1,
	}) {
		t.Errorf("RotationY(90) = %v", m)
	}
}

func TestRotationZ(t *testing.T) {
	m := RotationZ(90)
	if !eq(m, [16]float32{
		0, -1, 0, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}) {
		t.Errorf("RotationZ(90) = %v", m)
	}
}

func TestMulIdentity(t *testing.T) {
	r := Euler(vec.Vec3{X: 1, Y: 2, Z: 3}, 30, 10, 5)
	if got := Mul(Identity(), r); !ApproxEqual(got, r, e) {
		t.Errorf("Mul(Identity,%v) = %v", r, got)
	}
	if got := Mul(r, Identity()); !ApproxEqual(got, r, e) {
		t.Errorf("Mul(%v,Identity) = %v", r, got)
	}
}

func TestMulOrder(t *testing.T) {
	// the rotation is applied in the translated frame, the position stays
	tr := Translation(0, 0, -2)
	rot := RotationY(90)
	got := Mul(tr, rot).Position()
	want := vec.Vec3{X: 0, Y: 0, Z: -2}
	if !vec.ApproxEqual(got, want, e) {
		t.Errorf("Mul(T,R).Position() = %v want %v", got, want)
	}
	// translated along the rotated axis
	got = Mul(rot, tr).Position()
	want = vec.Vec3{X: -2, Y: 0, Z: 0}
	if !vec.ApproxEqual(got, want, e) {
		t.Errorf("Mul(R,T).Position() = %v want %v", got, want)
	}
}

func TestAxes(t *testing.T) {
	m := Identity()
	if f := m.Forward(); f != (vec.Vec3{X: 0, Y: 0, Z: -1}) {
		t.Errorf("Identity.Forward() = %v", f)
	}
	if r := m.Right(); r != (vec.Vec3{X: 1, Y: 0, Z: 0}) {
		t.Errorf("Identity.Right() = %v", r)
	}
	yaw := RotationY(90)
	want := vec.Vec3{X: -1, Y: 0, Z: 0}
	if f := yaw.Forward(); !vec.ApproxEqual(f, want, e) {
		t.Errorf("RotationY(90).Forward() = %v want %v", f, want)
	}
}

func TestTransformDir(t *testing.T) {
	m := Mul(Translation(5, 6, 7), RotationY(90))
	d := vec.Vec3{X: 0, Y: 0, Z: -1}
	got := m.TransformDir(d)
	want := vec.Vec3{X: -1, Y: 0, Z: 0}
	if !vec.ApproxEqual(got, want, e) {
		t.Errorf("TransformDir(%v) = %v want %v", d, got, want)
	}
	if p := m.TransformPoint(d); vec.ApproxEqual(p, got, e) {
		t.Errorf("TransformPoint(%v) ignores the translation: %v", d, p)
	}
	if f := m.Forward(); !vec.ApproxEqual(f, got, e) {
		t.Errorf("Forward() = %v want %v", f, got)
	}
}

func TestRigidInverse(t *testing.T) {
	m := Euler(vec.Vec3{X: 1, Y: -2, Z: 0.5}, 45, 20, -10)
	got := Mul(m, m.RigidInverse())
	if !ApproxEqual(got, Identity(), 1e-5) {
		t.Errorf("m * m^-1 = %v", got)
	}
	p := vec.Vec3{X: 3, Y: 4, Z: 5}
	back := m.RigidInverse().TransformPoint(m.TransformPoint(p))
	if !vec.ApproxEqual(back, p, 1e-5) {
		t.Errorf("inverse transform of %v = %v", p, back)
	}
}

func TestFinite(t *testing.T) {
	if !Identity().Finite() {
		t.Errorf("Identity is not finite")
	}
	m := Translation(math32.Inf(1), 0, 0)
	if m.Finite() {
		t.Errorf("%v reported as finite", m)
	}
}
