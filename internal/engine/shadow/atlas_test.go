package shadow

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occupied(a *Atlas) int {
	n := 0
	for y := 0; y < a.TileCount(); y++ {
		for x := 0; x < a.TileCount(); x++ {
			if a.Owner(x, y) != uuid.Nil {
				n++
			}
		}
	}
	return n
}

func requireConsistentTiles(t *testing.T, a *Atlas) {
	t.Helper()
	require.Equal(t, a.TotalTiles(), occupied(a)+a.FreeTiles(), "occupied + free must equal tileCount²")
}

func TestNewAtlasTileGrowth(t *testing.T) {
	tests := []struct {
		size, tile  int
		wantTile    int
		wantPerSide int
	}{
		{512, 32, 32, 16},
		{1024, 32, 32, 32},
		{2048, 32, 64, 32},
		{8192, 32, 256, 32},
		{1600, 32, 64, 25},
		{2016, 32, 96, 21},
		{1000, 40, 40, 25},
		{128, 16, 16, 8},
		{8192, 16, 256, 32},
	}
	for _, tt := range tests {
		a, err := NewAtlas(tt.size, tt.tile)
		require.NoError(t, err, "size %d", tt.size)
		assert.Equal(t, tt.wantTile, a.TileSize(), "size %d", tt.size)
		assert.Equal(t, tt.wantPerSide, a.TileCount(), "size %d", tt.size)
		assert.Equal(t, 0, a.Size()%a.TileSize())
		assert.Equal(t, a.TotalTiles(), a.FreeTiles())
	}
}

func TestNewAtlasNoDividingTileSize(t *testing.T) {
	tests := []struct {
		size, tile int
	}{
		{8192, 8}, // 8+16k is never a power of two
		{128, 1},  // odd tiles only divide 128 at 1
		{4096, 8},
	}
	for _, tt := range tests {
		done := make(chan error, 1)
		go func() {
			_, err := NewAtlas(tt.size, tt.tile)
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrInvalidAtlas, "size %d tile %d", tt.size, tt.tile)
		case <-time.After(2 * time.Second):
			t.Fatalf("NewAtlas(%d, %d) did not return", tt.size, tt.tile)
		}
	}
}

func TestNewAtlasRejectsInvalidSize(t *testing.T) {
	for _, size := range []int{64, 20000, 1000} {
		_, err := NewAtlas(size, 32)
		assert.True(t, errors.Is(err, ErrInvalidAtlas), "size %d", size)
	}
}

func TestAtlasScenarioA(t *testing.T) {
	a, err := NewAtlas(512, 32)
	require.NoError(t, err)
	require.Equal(t, 16, a.TileCount())
	require.Equal(t, 256, a.TotalTiles())

	idA, idB := uuid.New(), uuid.New()

	posA, err := a.Reserve(64, 64, idA)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0, 0}, posA)

	posB, err := a.Reserve(64, 64, idB)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0.125, 0}, posB)
	requireConsistentTiles(t, a)

	before := a.FreeTiles()
	assert.Equal(t, 4, a.Deallocate(idA))
	assert.Equal(t, before+4, a.FreeTiles())
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, uuid.Nil, a.Owner(x, y))
		}
	}
	assert.Equal(t, idB, a.Owner(2, 0))
	requireConsistentTiles(t, a)
}

func TestAtlasFirstFitScanOrder(t *testing.T) {
	a, err := NewAtlas(128, 32) // 4x4 tiles
	require.NoError(t, err)

	// Fill row 0 with a 96 wide strip, leaving (3,0) free.
	_, err = a.Reserve(96, 32, uuid.New())
	require.NoError(t, err)

	// A single tile lands in the remaining hole of row 0.
	pos, err := a.Reserve(32, 32, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0.75, 0}, pos)

	// A 2x2 footprint has to move down a row.
	pos, err = a.Reserve(64, 64, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0, 0.25}, pos)
	requireConsistentTiles(t, a)
}

func TestAtlasDeterministic(t *testing.T) {
	sizes := []int{64, 32, 128, 32, 64, 96, 32, 256, 64}
	ids := make([]uuid.UUID, len(sizes))
	for i := range ids {
		ids[i] = uuid.New()
	}

	run := func() []mgl32.Vec2 {
		a, err := NewAtlas(512, 32)
		require.NoError(t, err)
		var out []mgl32.Vec2
		for i, s := range sizes {
			pos, err := a.Reserve(s, s, ids[i])
			require.NoError(t, err)
			out = append(out, pos)
			if i == 4 {
				a.Deallocate(ids[1])
			}
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestAtlasNoOverlap(t *testing.T) {
	a, err := NewAtlas(512, 32)
	require.NoError(t, err)

	owners := map[uuid.UUID]int{}
	for _, s := range []int{128, 64, 32, 96, 64, 32, 160, 32} {
		id := uuid.New()
		_, err := a.Reserve(s, s, id)
		require.NoError(t, err)
		owners[id] = (s / 32) * (s / 32)
	}

	counted := map[uuid.UUID]int{}
	for y := 0; y < a.TileCount(); y++ {
		for x := 0; x < a.TileCount(); x++ {
			if o := a.Owner(x, y); o != uuid.Nil {
				counted[o]++
			}
		}
	}
	// Each owner holds exactly its footprint, so no tile was claimed twice.
	assert.Equal(t, owners, counted)

	for id, tiles := range owners {
		_, _, w, h, ok := a.Region(id)
		require.True(t, ok)
		assert.Equal(t, tiles, w*h)
	}
	requireConsistentTiles(t, a)
}

func TestAtlasRoundTrip(t *testing.T) {
	a, err := NewAtlas(1024, 32)
	require.NoError(t, err)
	_, err = a.Reserve(128, 128, uuid.New())
	require.NoError(t, err)

	before := a.FreeTiles()
	id := uuid.New()
	_, err = a.Reserve(96, 96, id)
	require.NoError(t, err)
	assert.Equal(t, before-9, a.FreeTiles())

	assert.Equal(t, 9, a.Deallocate(id))
	assert.Equal(t, before, a.FreeTiles())
	_, _, _, _, ok := a.Region(id)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Deallocate(id), "second deallocation frees nothing")
	requireConsistentTiles(t, a)
}

func TestAtlasFull(t *testing.T) {
	a, err := NewAtlas(128, 32)
	require.NoError(t, err)

	_, err = a.Reserve(128, 128, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, a.FreeTiles())

	_, err = a.Reserve(32, 32, uuid.New())
	assert.True(t, errors.Is(err, ErrNoSpace))

	_, err = a.Reserve(256, 256, uuid.New())
	assert.True(t, errors.Is(err, ErrNoSpace), "oversize footprint never fits")

	_, err = a.Reserve(32, 32, uuid.Nil)
	assert.Error(t, err)
	requireConsistentTiles(t, a)
}
