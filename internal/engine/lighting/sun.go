package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts longitude/latitude angles in degrees to a normalized vector
// pointing towards the sun. Longitude rotates around Y (0-360), latitude is the
// elevation above the horizon (0-90).
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := mgl32.DegToRad(longitude)
	lat := mgl32.DegToRad(latitude)

	return mgl32.Vec3{
		math32.Cos(lat) * math32.Sin(lon),
		math32.Sin(lat),
		math32.Cos(lat) * math32.Cos(lon),
	}
}

// NewSunLight creates a directional light from sun angles whose shadow covers
// radius around focus.
func NewSunLight(longitude, latitude float32, focus mgl32.Vec3, radius float32) *Light {
	return NewDirectionalLight(SunDirection(longitude, latitude).Mul(-1), focus, radius)
}
