package lighting

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightsched/internal/engine/bounds"
	"github.com/Faultbox/lightsched/internal/engine/shadow"
)

// MaxSourcesPerLight is the largest number of shadow sources one light owns.
const MaxSourcesPerLight = 6

// DefaultShadowResolution is the shadow map size of a new light.
const DefaultShadowResolution = 512

// ErrAttached is returned when shadow settings change after the light was added.
var ErrAttached = errors.New("light is attached; shadow settings are frozen")

// moveEpsilon is the smallest position change that invalidates a light.
const moveEpsilon = 0.001

// Light is a dynamic light source.
//
// The caller owns the light. While attached, a System keeps a reference to it
// keyed by its slot index. Lights must only be mutated from the frame thread.
type Light struct {
	kind     Kind
	index    int
	attached bool

	position  mgl32.Vec3
	direction mgl32.Vec3
	color     mgl32.Vec3
	radius    float32
	fov       float32

	castShadows      bool
	shadowResolution int
	sources          []*shadow.Source

	bounds          bounds.Sphere
	needsDataUpdate bool
	deferredFrames  int
}

func newLight(kind Kind) *Light {
	return &Light{
		kind:             kind,
		index:            -1,
		direction:        mgl32.Vec3{0, -1, 0},
		color:            mgl32.Vec3{1, 1, 1},
		radius:           10,
		fov:              45,
		shadowResolution: DefaultShadowResolution,
		needsDataUpdate:  true,
	}
}

// NewPointLight creates an omnidirectional light.
func NewPointLight(position mgl32.Vec3, radius float32) *Light {
	l := newLight(pointKind{})
	l.position = position
	l.radius = math32.Max(radius, 0.01)
	return l
}

// NewDirectionalLight creates a light shining along direction.
// Its shadow covers a sphere of radius around focus.
func NewDirectionalLight(direction, focus mgl32.Vec3, radius float32) *Light {
	l := newLight(directionalKind{})
	l.direction = direction.Normalize()
	l.position = focus
	l.radius = math32.Max(radius, 0.01)
	return l
}

// NewSpotLight creates a cone light. fov is the full cone angle in degrees.
func NewSpotLight(position, direction mgl32.Vec3, radius, fov float32) *Light {
	l := newLight(spotKind{})
	l.position = position
	l.direction = direction.Normalize()
	l.radius = math32.Max(radius, 0.01)
	l.fov = mgl32.Clamp(fov, 1, 179)
	return l
}

// Type returns the light kind tag.
func (l *Light) Type() Type { return l.kind.Type() }

// Index returns the light slot, or -1 when not attached.
func (l *Light) Index() int { return l.index }

// Attached reports whether the light is registered with a System.
func (l *Light) Attached() bool { return l.attached }

// Position returns the light position.
func (l *Light) Position() mgl32.Vec3 { return l.position }

// Direction returns the normalized light direction.
func (l *Light) Direction() mgl32.Vec3 { return l.direction }

// Color returns the light color.
func (l *Light) Color() mgl32.Vec3 { return l.color }

// Radius returns the influence radius.
func (l *Light) Radius() float32 { return l.radius }

// FOV returns the spot cone angle in degrees.
func (l *Light) FOV() float32 { return l.fov }

// Bounds returns the bounding volume computed by the last data update.
func (l *Light) Bounds() bounds.Sphere { return l.bounds }

// CastsShadows reports whether the light renders shadow maps.
func (l *Light) CastsShadows() bool { return l.castShadows }

// ShadowResolution returns the requested shadow map size.
func (l *Light) ShadowResolution() int { return l.shadowResolution }

// ShadowSources returns the sources owned by the light.
func (l *Light) ShadowSources() []*shadow.Source { return l.sources }

// SetPosition moves the light. Tiny moves are ignored.
func (l *Light) SetPosition(pos mgl32.Vec3) {
	if pos.Sub(l.position).Len() <= moveEpsilon {
		return
	}
	l.position = pos
	l.QueueUpdate()
	l.QueueShadowUpdate()
}

// SetDirection changes where directional and spot lights point.
func (l *Light) SetDirection(dir mgl32.Vec3) {
	dir = dir.Normalize()
	if dir.Sub(l.direction).Len() <= moveEpsilon {
		return
	}
	l.direction = dir
	l.QueueUpdate()
	l.QueueShadowUpdate()
}

// SetColor changes the light color.
func (l *Light) SetColor(color mgl32.Vec3) {
	l.color = color
	l.QueueUpdate()
}

// SetRadius changes the influence radius, clamped to at least 0.01.
func (l *Light) SetRadius(radius float32) {
	l.radius = math32.Max(radius, 0.01)
	l.QueueUpdate()
	l.QueueShadowUpdate()
}

// SetFOV changes the spot cone angle in degrees.
func (l *Light) SetFOV(fov float32) {
	l.fov = mgl32.Clamp(fov, 1, 179)
	l.QueueUpdate()
	l.QueueShadowUpdate()
}

// SetCastsShadows enables or disables shadows. Not allowed once attached.
func (l *Light) SetCastsShadows(enabled bool) error {
	if l.attached {
		return ErrAttached
	}
	l.setCastsShadows(enabled)
	return nil
}

func (l *Light) setCastsShadows(enabled bool) {
	l.castShadows = enabled
	if enabled {
		l.sources = l.kind.InitShadowSources(l)
		return
	}
	l.sources = nil
}

// SetShadowResolution sets the size of every shadow map of the light.
// Not allowed once attached, since the maps may already hold atlas space.
func (l *Light) SetShadowResolution(resolution int) error {
	if l.attached {
		return ErrAttached
	}
	l.shadowResolution = resolution
	for _, src := range l.sources {
		src.SetResolution(resolution)
	}
	return nil
}

// QueueUpdate marks the light data for recomputation in the next frame.
func (l *Light) QueueUpdate() {
	l.needsDataUpdate = true
}

// QueueShadowUpdate invalidates every shadow source of the light.
func (l *Light) QueueShadowUpdate() {
	if !l.castShadows {
		return
	}
	for _, src := range l.sources {
		src.Invalidate()
	}
}

// NeedsUpdate reports whether the light data is stale.
func (l *Light) NeedsUpdate() bool { return l.needsDataUpdate }

// NeedsShadowUpdate reports whether any shadow source is invalid.
func (l *Light) NeedsShadowUpdate() bool {
	if !l.castShadows {
		return false
	}
	for _, src := range l.sources {
		if !src.IsValid() {
			return true
		}
	}
	return false
}

// performUpdate recomputes bounds and derived data.
func (l *Light) performUpdate() {
	l.needsDataUpdate = false
	l.bounds = l.kind.ComputeBounds(l)
}

// performShadowUpdate repositions the sources and returns the ones needing a render.
func (l *Light) performShadowUpdate() []*shadow.Source {
	l.kind.UpdateShadowSources(l)
	var queued []*shadow.Source
	for _, src := range l.sources {
		if !src.IsValid() {
			queued = append(queued, src)
		}
	}
	return queued
}

// sourceIndexes returns the shadow-source slots, -1 for unused entries.
func (l *Light) sourceIndexes() [MaxSourcesPerLight]int32 {
	var out [MaxSourcesPerLight]int32
	for i := range out {
		out[i] = -1
	}
	for i, src := range l.sources {
		if i < MaxSourcesPerLight {
			out[i] = int32(src.Index())
		}
	}
	return out
}
