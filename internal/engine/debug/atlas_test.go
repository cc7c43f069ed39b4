package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lightsched/internal/engine/shadow"
)

func TestRenderAtlas(t *testing.T) {
	a, err := shadow.NewAtlas(256, 32) // 8x8 tiles
	require.NoError(t, err)

	owner := uuid.New()
	_, err = a.Reserve(64, 64, owner)
	require.NoError(t, err)

	img := RenderAtlas(a, 4)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	want := OwnerColor(owner)
	assert.Equal(t, want, img.RGBAAt(0, 0))
	assert.Equal(t, want, img.RGBAAt(7, 7), "second tile of the reservation")
	assert.Equal(t, FreeColor, img.RGBAAt(8, 0))
	assert.Equal(t, FreeColor, img.RGBAAt(31, 31))

	assert.Equal(t, 8, RenderAtlas(a, 1).Bounds().Dx())
}

func TestOwnerColor(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, OwnerColor(id), OwnerColor(id))
	assert.Equal(t, FreeColor, OwnerColor(uuid.Nil))

	c := OwnerColor(id)
	assert.GreaterOrEqual(t, c.R, uint8(64))
	assert.GreaterOrEqual(t, c.G, uint8(64))
	assert.GreaterOrEqual(t, c.B, uint8(64))
}

func TestSaveAtlasPNG(t *testing.T) {
	a, err := shadow.NewAtlas(128, 32)
	require.NoError(t, err)
	_, err = a.Reserve(32, 32, uuid.New())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "atlas.png")
	require.NoError(t, SaveAtlasPNG(a, path, 2))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDepthImage(t *testing.T) {
	// bottom row near, top row far
	depth := []float32{
		0, 0,
		1, 2,
	}
	img, err := DepthImage(depth, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 0).Y, "depth is clamped")
	assert.Equal(t, uint8(0), img.GrayAt(0, 1).Y)

	_, err = DepthImage(depth, 3)
	assert.Error(t, err)
}
