package shadow

// Rect is a normalized rectangle inside the atlas texture.
type Rect struct {
	X, Y, W, H float32
}

// Pixels converts the rectangle to pixel coordinates for an atlas of the given size.
func (r Rect) Pixels(atlasSize int) (x, y, w, h int32) {
	s := float32(atlasSize)
	return int32(r.X*s + 0.5), int32(r.Y*s + 0.5), int32(r.W*s + 0.5), int32(r.H*s + 0.5)
}

// RenderTarget renders shadow-casting geometry into regions of the shared atlas texture.
type RenderTarget interface {
	// RenderRegion renders one shadow map. index is the region slot within this frame.
	RenderRegion(index int, rect Rect, cam Camera)
	// SetActiveRegions reports how many regions were rendered this frame.
	SetActiveRegions(count int)
}

type nopTarget struct{}

func (nopTarget) RenderRegion(int, Rect, Camera) {}
func (nopTarget) SetActiveRegions(int)           {}

// NopTarget returns a render target that discards every region.
func NopTarget() RenderTarget { return nopTarget{} }
