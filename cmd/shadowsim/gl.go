package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightsched/internal/engine/debug"
	"github.com/Faultbox/lightsched/internal/engine/shader"
	"github.com/Faultbox/lightsched/internal/engine/shadow"
	"github.com/Faultbox/lightsched/internal/engine/window"
)

const depthVertexShader = `
layout (location = 0) in vec3 aPosition;

uniform mat4 uLightViewProj;
uniform mat4 uModel;

void main() {
    gl_Position = uLightViewProj * uModel * vec4(aPosition, 1.0);
}
`

const depthFragmentShader = `
void main() {
    // depth only
}
`

// glBackend renders shadow maps of a box scene into a GL depth atlas.
type glBackend struct {
	win    *window.Window
	target *shadow.GLAtlasTarget
	log    *zap.Logger

	program      uint32
	vao, vbo     uint32
	locViewProj  int32
	locModel     int32
	boxes        []mgl32.Mat4
	atlasSize    int32
	drawnRegions int
}

func newGLBackend(atlasSize int32, log *zap.Logger) (*glBackend, error) {
	win, err := window.New(window.Config{Title: "shadowsim", Width: 64, Height: 64, Hidden: true}, log)
	if err != nil {
		return nil, err
	}

	b := &glBackend{win: win, log: log, atlasSize: atlasSize}
	b.target, err = shadow.NewGLAtlasTarget(atlasSize, b.draw)
	if err != nil {
		win.Close()
		return nil, err
	}
	return b, nil
}

// buildScene compiles the depth program with the light system defines and
// scatters boxes over a ground slab.
func (b *glBackend) buildScene(defines shader.Defines, rng *rand.Rand) error {
	program, err := shader.CompileProgramWithDefines(depthVertexShader, depthFragmentShader, defines)
	if err != nil {
		return fmt.Errorf("depth program: %w", err)
	}
	b.program = program
	b.locViewProj = shader.GetUniform(program, "uLightViewProj")
	b.locModel = shader.GetUniform(program, "uModel")

	verts := cubeVertices()
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	ground := mgl32.Translate3D(0, -0.5, 0).Mul4(mgl32.Scale3D(2*sceneExtent, 1, 2*sceneExtent))
	b.boxes = append(b.boxes, ground)
	for i := 0; i < 64; i++ {
		h := 1 + rng.Float32()*6
		x := (rng.Float32()*2 - 1) * sceneExtent
		z := (rng.Float32()*2 - 1) * sceneExtent
		b.boxes = append(b.boxes, mgl32.Translate3D(x, h/2, z).Mul4(mgl32.Scale3D(2, h, 2)))
	}

	b.log.Debug("built scene", zap.Int("boxes", len(b.boxes)))
	return nil
}

func (b *glBackend) draw(cam shadow.Camera) {
	if b.program == 0 {
		return
	}
	vp := cam.ViewProjection()

	gl.UseProgram(b.program)
	gl.UniformMatrix4fv(b.locViewProj, 1, false, &vp[0])
	gl.BindVertexArray(b.vao)
	for i := range b.boxes {
		gl.UniformMatrix4fv(b.locModel, 1, false, &b.boxes[i][0])
		gl.DrawArrays(gl.TRIANGLES, 0, 36)
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	b.drawnRegions++
}

func (b *glBackend) saveDepth(path string) error {
	gl.Finish()
	img, err := debug.DepthImage(b.target.ReadDepth(), int(b.atlasSize))
	if err != nil {
		return err
	}
	return debug.SavePNG(img, path)
}

func (b *glBackend) Close() {
	b.log.Debug("closing GL backend", zap.Int("regions_drawn", b.drawnRegions))
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.program != 0 {
		gl.DeleteProgram(b.program)
	}
	b.target.Destroy()
	b.win.Close()
}

// cubeVertices returns a unit cube centered at the origin, counter-clockwise faces.
func cubeVertices() []float32 {
	corners := [8]mgl32.Vec3{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	faces := [6][4]int{
		{4, 5, 6, 7}, // +Z
		{1, 0, 3, 2}, // -Z
		{5, 1, 2, 6}, // +X
		{0, 4, 7, 3}, // -X
		{7, 6, 2, 3}, // +Y
		{0, 1, 5, 4}, // -Y
	}

	out := make([]float32, 0, 36*3)
	for _, f := range faces {
		for _, i := range [6]int{f[0], f[1], f[2], f[0], f[2], f[3]} {
			c := corners[i]
			out = append(out, c[0], c[1], c[2])
		}
	}
	return out
}
