// SPDX-License-Identifier: GPL-2.0-or-later

// Package mat implements the homogeneous 4x4 transforms used for anchor,
// device and head poses.
package mat

import (
	"fmt"

	"github.com/chewxy/math32"

	"anchorsound/math"
	"anchorsound/math/vec"
)

// Mat4 is stored in row major order. The translation lives in the elements
// 3, 7 and 11, the last row is 0, 0, 0, 1 for rigid transforms.
type Mat4 struct {
	m [16]float32
}

func Identity() Mat4 {
	return Mat4{
		m: [16]float32{
			1, 0, 0, 0, // 0 - 3
			0, 1, 0, 0, // 4 - 7
			0, 0, 1, 0, // 8 - 11
			0, 0, 0, 1, // 12 - 15
		},
	}
}

// FromArray takes the 16 values in row major order.
func FromArray(a [16]float32) Mat4 {
	return Mat4{m: a}
}

func (m Mat4) Array() [16]float32 {
	return m.m
}

func (m Mat4) At(row, col int) float32 {
	return m.m[row*4+col]
}

func (m Mat4) String() string {
	return fmt.Sprintf("[%v %v %v %v | %v %v %v %v | %v %v %v %v | %v %v %v %v]",
		m.m[0], m.m[1], m.m[2], m.m[3],
		m.m[4], m.m[5], m.m[6], m.m[7],
		m.m[8], m.m[9], m.m[10], m.m[11],
		m.m[12], m.m[13], m.m[14], m.m[15],
	)
}

// Translation returns a pure translation by (x,y,z).
func Translation(x, y, z float32) Mat4 {
	// 1, 0, 0, x
	// 0, 1, 0, y
	// 0, 0, 1, z
	// 0, 0, 0, 1
	t := Identity()
	t.m[3], t.m[7], t.m[11] = x, y, z
	return t
}

func RotationX(degree float32) Mat4 {
	sin, cos := math32.Sincos(math.Deg2Rad(degree))
	// 1, 0, 0, 0
	// 0, cos, -sin, 0
	// 0, sin, cos 0
	// 0, 0, 0, 1
	return Mat4{m: [16]float32{
		1, 0, 0, 0,
		0, cos, -sin, 0,
		0, sin, cos, 0,
		0, 0, 0, 1,
	}}
}

// RotationY is a yaw around the up axis.
func RotationY(degree float32) Mat4 {
	sin, cos := math32.Sincos(math.Deg2Rad(degree))
	// cos, 0, sin, 0
	// 0, 1, 0, 0
	// -sin, 0, cos, 0
	// 0, 0, 0, 1
	return Mat4{m: [16]float32{
		cos, 0, sin, 0,
		0, 1, 0, 0,
		-sin, 0, cos, 0,
		0, 0, 0, 1,
	}}
}

func RotationZ(degree float32) Mat4 {
	sin, cos := math32.Sincos(math.Deg2Rad(degree))
	// cos, -sin, 0, 0
	// sin, cos, 0, 0
	// 0, 0, 1, 0
	// 0, 0, 0, 1
	return Mat4{m: [16]float32{
		cos, -sin, 0, 0,
		sin, cos, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Euler builds translation * yaw * pitch * roll, angles in degree.
func Euler(position vec.Vec3, yaw, pitch, roll float32) Mat4 {
	r := Mul(RotationY(yaw), Mul(RotationX(pitch), RotationZ(roll)))
	r.m[3], r.m[7], r.m[11] = position.X, position.Y, position.Z
	return r
}

// Mul returns a*b, so b is applied first when transforming points and is
// expressed in the local frame of a.
func Mul(a, b Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a.m[row*4+k] * b.m[k*4+col]
			}
			r.m[row*4+col] = s
		}
	}
	return r
}

// Position returns the translation part.
func (m Mat4) Position() vec.Vec3 {
	return vec.Vec3{X: m.m[3], Y: m.m[7], Z: m.m[11]}
}

// Right is the local x axis in world space.
func (m Mat4) Right() vec.Vec3 {
	return m.TransformDir(vec.Vec3{X: 1})
}

// Up is the local y axis in world space.
func (m Mat4) Up() vec.Vec3 {
	return m.TransformDir(vec.Vec3{Y: 1})
}

// Forward is the local -z axis in world space, the viewing direction of a
// camera or listener.
func (m Mat4) Forward() vec.Vec3 {
	return m.TransformDir(vec.Vec3{Z: -1})
}

// TransformPoint applies the full transform to a point.
func (m Mat4) TransformPoint(p vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: m.m[0]*p.X + m.m[1]*p.Y + m.m[2]*p.Z + m.m[3],
		Y: m.m[4]*p.X + m.m[5]*p.Y + m.m[6]*p.Z + m.m[7],
		Z: m.m[8]*p.X + m.m[9]*p.Y + m.m[10]*p.Z + m.m[11],
	}
}

// TransformDir applies only the rotational part.
func (m Mat4) TransformDir(d vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: m.m[0]*d.X + m.m[1]*d.Y + m.m[2]*d.Z,
		Y: m.m[4]*d.X + m.m[5]*d.Y + m.m[6]*d.Z,
		Z: m.m[8]*d.X + m.m[9]*d.Y + m.m[10]*d.Z,
	}
}

// RigidInverse inverts a rotation+translation transform. The result is
// undefined for transforms containing scale or shear.
func (m Mat4) RigidInverse() Mat4 {
	var r Mat4
	// transpose the rotation
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r.m[row*4+col] = m.m[col*4+row]
		}
	}
	t := m.Position()
	r.m[3] = -(r.m[0]*t.X + r.m[1]*t.Y + r.m[2]*t.Z)
	r.m[7] = -(r.m[4]*t.X + r.m[5]*t.Y + r.m[6]*t.Z)
	r.m[11] = -(r.m[8]*t.X + r.m[9]*t.Y + r.m[10]*t.Z)
	r.m[15] = 1
	return r
}

// Finite reports whether no element is NaN or infinite.
func (m Mat4) Finite() bool {
	return math.Finite(m.m[:]...)
}

func ApproxEqual(a, b Mat4, eps float32) bool {
	for i := range a.m {
		if math32.Abs(a.m[i]-b.m[i]) > eps {
			return false
		}
	}
	return true
}
