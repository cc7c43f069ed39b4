// Package bounds provides bounding volumes and intersection tests used for light culling.
package bounds

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Volume is a region lights can be tested against.
type Volume interface {
	IntersectsSphere(s Sphere) bool
}

// Sphere is a bounding sphere. An infinite radius covers all of space.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// Infinite returns a sphere that intersects every volume.
func Infinite() Sphere {
	return Sphere{Radius: math32.Inf(1)}
}

// IsInfinite reports whether the sphere covers all of space.
func (s Sphere) IsInfinite() bool {
	return math32.IsInf(s.Radius, 1)
}

// IntersectsSphere reports whether two spheres overlap.
func (s Sphere) IntersectsSphere(o Sphere) bool {
	if s.IsInfinite() || o.IsInfinite() {
		return true
	}
	r := s.Radius + o.Radius
	return s.Center.Sub(o.Center).LenSqr() <= r*r
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the center point of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the half-diagonal of the box.
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() / 2
}

// Contains reports whether p lies inside the box (inclusive).
func (b AABB) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the sphere touches the box.
func (b AABB) IntersectsSphere(s Sphere) bool {
	if s.IsInfinite() {
		return true
	}
	var d2 float32
	for i := 0; i < 3; i++ {
		c := s.Center[i]
		if c < b.Min[i] {
			d := b.Min[i] - c
			d2 += d * d
		} else if c > b.Max[i] {
			d := c - b.Max[i]
			d2 += d * d
		}
	}
	return d2 <= s.Radius*s.Radius
}

// Frustum is a camera frustum described by six inward-facing planes
// in order Left, Right, Bottom, Top, Near, Far. Each plane is Ax + By + Cz + D = 0.
type Frustum struct {
	Planes [6]mgl32.Vec4
}

// FrustumFromMatrix extracts the frustum planes of a view-projection matrix.
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	var f Frustum
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	f.Planes[0] = r3.Add(r0)
	f.Planes[1] = r3.Sub(r0)
	f.Planes[2] = r3.Add(r1)
	f.Planes[3] = r3.Sub(r1)
	// OpenGL clip space, depth in -1..1
	f.Planes[4] = r3.Add(r2)
	f.Planes[5] = r3.Sub(r2)

	for i := range f.Planes {
		p := f.Planes[i]
		l := math32.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		if l > 0 {
			f.Planes[i] = p.Mul(1 / l)
		}
	}
	return f
}

// IntersectsSphere reports whether the sphere is at least partially inside the frustum.
func (f Frustum) IntersectsSphere(s Sphere) bool {
	if s.IsInfinite() {
		return true
	}
	for _, p := range f.Planes {
		dist := p[0]*s.Center[0] + p[1]*s.Center[1] + p[2]*s.Center[2] + p[3]
		if dist < -s.Radius {
			return false
		}
	}
	return true
}
