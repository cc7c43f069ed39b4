// Package shadow packs shadow maps into a shared atlas and schedules their refresh.
package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var _ RenderTarget = (*GLAtlasTarget)(nil)

// DrawFunc renders shadow-casting geometry as seen by cam.
type DrawFunc func(cam Camera)

// GLAtlasTarget renders shadow map regions into a depth-only atlas texture.
// It needs a current OpenGL 4.1 context.
type GLAtlasTarget struct {
	FBO          uint32 // Framebuffer object
	DepthTexture uint32 // Depth texture holding the whole atlas
	Size         int32  // Atlas size in pixels (width = height)

	draw         DrawFunc
	active       int
	prevViewport [4]int32
}

// NewGLAtlasTarget allocates a size×size depth atlas.
func NewGLAtlasTarget(size int32, draw DrawFunc) (*GLAtlasTarget, error) {
	t := &GLAtlasTarget{Size: size, draw: draw}

	gl.GenFramebuffers(1, &t.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)

	gl.GenTextures(1, &t.DepthTexture)
	gl.BindTexture(gl.TEXTURE_2D, t.DepthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	// Nearest filtering so samples never bleed across neighbouring maps.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.DepthTexture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return nil, fmt.Errorf("shadow atlas framebuffer incomplete: status=0x%X", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	// Start from a cleared atlas.
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.ClearDepth(1)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return t, nil
}

// RenderRegion clears rect and draws the scene from cam into it.
func (t *GLAtlasTarget) RenderRegion(index int, rect Rect, cam Camera) {
	x, y, w, h := rect.Pixels(int(t.Size))

	gl.GetIntegerv(gl.VIEWPORT, &t.prevViewport[0])
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)

	gl.Viewport(x, y, w, h)
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(x, y, w, h)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// Front-face culling reduces shadow acne.
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)

	if t.draw != nil {
		t.draw(cam)
	}

	gl.CullFace(gl.BACK)
	gl.Disable(gl.SCISSOR_TEST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(t.prevViewport[0], t.prevViewport[1], t.prevViewport[2], t.prevViewport[3])
}

// SetActiveRegions records how many regions were refreshed this frame.
func (t *GLAtlasTarget) SetActiveRegions(count int) {
	t.active = count
}

// ActiveRegions returns the region count of the last frame.
func (t *GLAtlasTarget) ActiveRegions() int {
	return t.active
}

// BindTexture binds the atlas depth texture to textureUnit for sampling.
func (t *GLAtlasTarget) BindTexture(textureUnit uint32) {
	gl.ActiveTexture(textureUnit)
	gl.BindTexture(gl.TEXTURE_2D, t.DepthTexture)
}

// ReadDepth reads the whole atlas back, row by row from the bottom, one value per pixel.
func (t *GLAtlasTarget) ReadDepth() []float32 {
	buf := make([]float32, int(t.Size)*int(t.Size))
	gl.BindTexture(gl.TEXTURE_2D, t.DepthTexture)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&buf[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return buf
}

// Destroy releases the GPU resources.
func (t *GLAtlasTarget) Destroy() {
	if t.FBO != 0 {
		gl.DeleteFramebuffers(1, &t.FBO)
		t.FBO = 0
	}
	if t.DepthTexture != 0 {
		gl.DeleteTextures(1, &t.DepthTexture)
		t.DepthTexture = 0
	}
}

// IsValid reports whether the atlas was created successfully.
func (t *GLAtlasTarget) IsValid() bool {
	return t != nil && t.FBO != 0 && t.DepthTexture != 0
}
