package shadow

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// State is the refresh state of a shadow source.
type State int

const (
	// Fresh means the atlas contents match the current geometry.
	Fresh State = iota
	// Invalidated means the source moved and has not been queued yet.
	Invalidated
	// Queued means the source waits in the update queue.
	Queued
	// Rendering means the source was selected this frame and handed to the render target.
	Rendering
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Invalidated:
		return "invalidated"
	case Queued:
		return "queued"
	case Rendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Camera holds the per-region camera parameters used to render one shadow map.
type Camera struct {
	Position   mgl32.Vec3
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// Projection describes how a source projects the scene into its shadow map.
type Projection struct {
	Ortho    bool
	FOV      float32 // vertical field of view in degrees (perspective)
	HalfSize float32 // half extent of the ortho box
	Near     float32
	Far      float32
}

// Matrix builds the projection matrix. Shadow maps are square, so aspect is 1.
func (p Projection) Matrix() mgl32.Mat4 {
	if p.Ortho {
		return mgl32.Ortho(-p.HalfSize, p.HalfSize, -p.HalfSize, p.HalfSize, p.Near, p.Far)
	}
	return mgl32.Perspective(mgl32.DegToRad(p.FOV), 1, p.Near, p.Far)
}

// Source is one shadow-casting viewpoint. A light owns one or more sources.
//
// A source starts invalid; it becomes valid once selected for rendering and is
// invalidated again whenever its owner moves.
type Source struct {
	uid        uuid.UUID
	index      int
	resolution int

	atlasPos    mgl32.Vec2
	hasAtlasPos bool

	valid bool
	state State

	position   mgl32.Vec3
	target     mgl32.Vec3
	up         mgl32.Vec3
	projection Projection
	camera     Camera
}

// NewSource creates an unattached source with the given shadow map resolution.
func NewSource(resolution int) *Source {
	return &Source{
		uid:        uuid.New(),
		index:      -1,
		resolution: resolution,
		state:      Invalidated,
		target:     mgl32.Vec3{0, 0, -1},
		up:         mgl32.Vec3{0, 1, 0},
		projection: Projection{FOV: 90, Near: 0.1, Far: 100},
	}
}

// UID returns the identifier used as atlas tile owner.
func (s *Source) UID() uuid.UUID { return s.uid }

// Index returns the shadow-source slot, or -1 when unattached.
func (s *Source) Index() int { return s.index }

// SetIndex is called by the owning light system on attach/detach.
func (s *Source) SetIndex(index int) { s.index = index }

// Resolution returns the shadow map size in pixels.
func (s *Source) Resolution() int { return s.resolution }

// SetResolution changes the shadow map size. It must not change while the source
// holds an atlas reservation.
func (s *Source) SetResolution(resolution int) { s.resolution = resolution }

// AtlasPos returns the normalized top-left corner of the reservation.
func (s *Source) AtlasPos() (mgl32.Vec2, bool) { return s.atlasPos, s.hasAtlasPos }

// HasAtlasPos reports whether the source owns an atlas region.
func (s *Source) HasAtlasPos() bool { return s.hasAtlasPos }

// AssignAtlasPos records the reservation made for this source.
func (s *Source) AssignAtlasPos(pos mgl32.Vec2) {
	s.atlasPos = pos
	s.hasAtlasPos = true
}

// ClearAtlasPos forgets the reservation after its tiles were deallocated.
func (s *Source) ClearAtlasPos() {
	s.atlasPos = mgl32.Vec2{}
	s.hasAtlasPos = false
}

// AtlasRect returns the normalized atlas rectangle of the reservation.
func (s *Source) AtlasRect(atlasSize int) Rect {
	scale := float32(s.resolution) / float32(atlasSize)
	return Rect{X: s.atlasPos[0], Y: s.atlasPos[1], W: scale, H: scale}
}

// IsValid reports whether the shadow map can be sampled as-is.
func (s *Source) IsValid() bool { return s.valid }

// State returns the refresh state.
func (s *Source) State() State { return s.state }

// Invalidate marks the shadow map stale. A queued source keeps its queue position.
func (s *Source) Invalidate() {
	s.valid = false
	if s.state != Queued {
		s.state = Invalidated
	}
}

// SetValid marks the shadow map as rendered.
func (s *Source) SetValid() { s.valid = true }

func (s *Source) setState(st State) { s.state = st }

// SetupPerspective configures a perspective projection with fov in degrees.
func (s *Source) SetupPerspective(fov, near, far float32) {
	s.projection = Projection{FOV: fov, Near: near, Far: far}
}

// SetupOrtho configures an orthographic projection.
func (s *Source) SetupOrtho(halfSize, near, far float32) {
	s.projection = Projection{Ortho: true, HalfSize: halfSize, Near: near, Far: far}
}

// Projection returns the projection setup.
func (s *Source) Projection() Projection { return s.projection }

// SetPos moves the source.
func (s *Source) SetPos(pos mgl32.Vec3) { s.position = pos }

// Pos returns the source position.
func (s *Source) Pos() mgl32.Vec3 { return s.position }

// LookAt orients the source towards target.
func (s *Source) LookAt(target mgl32.Vec3) {
	s.target = target
	s.up = UpVector(target.Sub(s.position))
}

// Update recomputes the camera parameters from position, orientation and projection.
func (s *Source) Update() {
	s.camera = Camera{
		Position:   s.position,
		View:       mgl32.LookAtV(s.position, s.target, s.up),
		Projection: s.projection.Matrix(),
	}
}

// Camera returns the camera parameters computed by the last Update.
func (s *Source) Camera() Camera { return s.camera }
