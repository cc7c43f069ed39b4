// Package lighting tracks dynamic lights, culls them per frame and schedules
// their shadow map refreshes.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightsched/internal/engine/bounds"
	"github.com/Faultbox/lightsched/internal/engine/shadow"
)

// Type is the light kind tag. Values match the shader constants.
type Type uint32

const (
	TypePoint       Type = 0
	TypeDirectional Type = 1
	TypeSpot        Type = 2
)

func (t Type) String() string {
	switch t {
	case TypePoint:
		return "point"
	case TypeDirectional:
		return "directional"
	case TypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Kind implements the behaviour that differs between light types.
type Kind interface {
	Type() Type
	// ComputeBounds returns the volume the light influences.
	ComputeBounds(l *Light) bounds.Sphere
	// InitShadowSources creates the sources the light renders shadows from.
	InitShadowSources(l *Light) []*shadow.Source
	// UpdateShadowSources repositions the sources after the light moved.
	UpdateShadowSources(l *Light)
}

// shadowNear is the near plane of perspective shadow cameras.
const shadowNear = 0.1

type pointKind struct{}

func (pointKind) Type() Type { return TypePoint }

func (pointKind) ComputeBounds(l *Light) bounds.Sphere {
	return bounds.Sphere{Center: l.position, Radius: l.radius}
}

// Omnidirectional shadows use one 90 degree source per cube face.
func (pointKind) InitShadowSources(l *Light) []*shadow.Source {
	sources := make([]*shadow.Source, len(shadow.CubeDirections))
	for i := range sources {
		src := shadow.NewSource(l.shadowResolution)
		src.SetupPerspective(90, shadowNear, math32.Max(l.radius, 2*shadowNear))
		sources[i] = src
	}
	return sources
}

func (pointKind) UpdateShadowSources(l *Light) {
	for i, src := range l.sources {
		src.SetupPerspective(90, shadowNear, math32.Max(l.radius, 2*shadowNear))
		shadow.FitCubeFace(src, i, l.position)
	}
}

type directionalKind struct{}

func (directionalKind) Type() Type { return TypeDirectional }

// Directional lights reach everywhere.
func (directionalKind) ComputeBounds(*Light) bounds.Sphere {
	return bounds.Infinite()
}

func (directionalKind) InitShadowSources(l *Light) []*shadow.Source {
	return []*shadow.Source{shadow.NewSource(l.shadowResolution)}
}

// The shadow covers a sphere of the light's radius around its position.
func (directionalKind) UpdateShadowSources(l *Light) {
	focus := bounds.Sphere{Center: l.position, Radius: l.radius}
	for _, src := range l.sources {
		shadow.FitDirectional(src, l.direction, focus)
	}
}

type spotKind struct{}

func (spotKind) Type() Type { return TypeSpot }

// ComputeBounds returns the tightest sphere around the cone.
func (spotKind) ComputeBounds(l *Light) bounds.Sphere {
	half := mgl32.DegToRad(l.fov) / 2
	dir := l.direction.Normalize()
	if half > math32.Pi/4 {
		return bounds.Sphere{
			Center: l.position.Add(dir.Mul(math32.Cos(half) * l.radius)),
			Radius: math32.Sin(half) * l.radius,
		}
	}
	r := l.radius / (2 * math32.Cos(half))
	return bounds.Sphere{Center: l.position.Add(dir.Mul(r)), Radius: r}
}

func (spotKind) InitShadowSources(l *Light) []*shadow.Source {
	return []*shadow.Source{shadow.NewSource(l.shadowResolution)}
}

func (spotKind) UpdateShadowSources(l *Light) {
	for _, src := range l.sources {
		shadow.FitSpot(src, l.position, l.direction, l.fov, l.radius)
	}
}
