package shadow

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightsched/internal/engine/bounds"
)

// UpVector picks an up vector that is not parallel to dir.
func UpVector(dir mgl32.Vec3) mgl32.Vec3 {
	d := dir.Normalize()
	if math32.Abs(d[1]) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

// FitDirectional places an orthographic source so that it covers focus when lit
// along lightDir. lightDir points from the light towards the scene.
func FitDirectional(src *Source, lightDir mgl32.Vec3, focus bounds.Sphere) {
	dir := lightDir.Normalize()
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	radius := focus.Radius
	if radius <= 0 || focus.IsInfinite() {
		radius = 1
	}

	// Stand back far enough to see the whole focus sphere.
	distance := radius * 2
	src.SetPos(focus.Center.Sub(dir.Mul(distance)))
	src.LookAt(focus.Center)

	padding := radius * 0.1
	src.SetupOrtho(radius+padding, 0.1, distance+radius+padding)
}

// CubeDirections are the six face directions of an omnidirectional shadow.
var CubeDirections = [6]mgl32.Vec3{
	{-1, 0, 0},
	{1, 0, 0},
	{0, -1, 0},
	{0, 1, 0},
	{0, 0, -1},
	{0, 0, 1},
}

// FitCubeFace places a 90 degree perspective source looking along CubeDirections[face].
func FitCubeFace(src *Source, face int, center mgl32.Vec3) {
	src.SetPos(center)
	src.LookAt(center.Add(CubeDirections[face]))
}

// FitSpot places a perspective source at pos looking along dir.
func FitSpot(src *Source, pos, dir mgl32.Vec3, fov, far float32) {
	d := dir.Normalize()
	if d.Len() == 0 {
		d = mgl32.Vec3{0, 0, -1}
	}
	src.SetPos(pos)
	src.LookAt(pos.Add(d))
	src.SetupPerspective(fov, 0.1, math32.Max(far, 0.2))
}
