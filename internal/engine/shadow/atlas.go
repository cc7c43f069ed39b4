package shadow

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Atlas limits.
const (
	MinAtlasSize    = 128
	MaxAtlasSize    = 16384
	DefaultTileSize = 32

	// maxTilesPerSide bounds the per-reservation scan cost.
	maxTilesPerSide = 32
	tileSizeStep    = 16
)

var (
	// ErrInvalidAtlas is returned for atlas sizes that cannot be tiled.
	ErrInvalidAtlas = errors.New("invalid shadow atlas size")
	// ErrNoSpace is returned when no free footprint fits a reservation.
	ErrNoSpace = errors.New("no free atlas space")
)

// Atlas is a square texture split into a grid of equally sized tiles.
// Shadow maps are packed into it first-fit, scanning rows top to bottom
// and each row left to right; identical call histories give identical placements.
type Atlas struct {
	size      int
	tileSize  int
	tileCount int
	tiles     []uuid.UUID // row-major, uuid.Nil means free
	freeTiles int
}

// NewAtlas creates an atlas of size×size pixels.
// The tile size grows in steps of 16 until the atlas has at most 32 tiles per side
// and the size is an exact multiple of it. ErrInvalidAtlas is returned when no
// such tile size exists.
func NewAtlas(size, tileSize int) (*Atlas, error) {
	if size < MinAtlasSize || size > MaxAtlasSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidAtlas, size, MinAtlasSize, MaxAtlasSize)
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	if size%tileSize != 0 {
		return nil, fmt.Errorf("%w: %d is not a multiple of tile size %d", ErrInvalidAtlas, size, tileSize)
	}

	tileSize, ok := growTileSize(size, tileSize)
	if !ok {
		return nil, fmt.Errorf("%w: no tile size %d+%dk divides %d into at most %d tiles per side",
			ErrInvalidAtlas, tileSize, tileSizeStep, size, maxTilesPerSide)
	}

	count := size / tileSize
	return &Atlas{
		size:      size,
		tileSize:  tileSize,
		tileCount: count,
		tiles:     make([]uuid.UUID, count*count),
		freeTiles: count * count,
	}, nil
}

// growTileSize returns the first tile+16k not larger than size that divides
// size into at most maxTilesPerSide tiles.
func growTileSize(size, tile int) (int, bool) {
	for t := tile; t <= size; t += tileSizeStep {
		if size/t <= maxTilesPerSide && size%t == 0 {
			return t, true
		}
	}
	return tile, false
}

// Size returns the atlas size in pixels.
func (a *Atlas) Size() int { return a.size }

// TileSize returns the tile size in pixels. Shadow maps cannot be smaller than this.
func (a *Atlas) TileSize() int { return a.tileSize }

// TileCount returns the number of tiles per side.
func (a *Atlas) TileCount() int { return a.tileCount }

// FreeTiles returns the number of unreserved tiles.
func (a *Atlas) FreeTiles() int { return a.freeTiles }

// TotalTiles returns the number of tiles in the atlas.
func (a *Atlas) TotalTiles() int { return a.tileCount * a.tileCount }

// Owner returns the owner of tile (x, y), or uuid.Nil when free or out of range.
func (a *Atlas) Owner(x, y int) uuid.UUID {
	if x < 0 || y < 0 || x >= a.tileCount || y >= a.tileCount {
		return uuid.Nil
	}
	return a.tiles[y*a.tileCount+x]
}

// Reserve finds room for a width×height pixel shadow map and assigns it to owner.
// Returns the normalized top-left corner of the reserved region.
func (a *Atlas) Reserve(width, height int, owner uuid.UUID) (mgl32.Vec2, error) {
	if owner == uuid.Nil {
		return mgl32.Vec2{}, fmt.Errorf("reserve: nil owner")
	}

	tileW := (width + a.tileSize - 1) / a.tileSize
	tileH := (height + a.tileSize - 1) / a.tileSize
	if tileW <= 0 || tileH <= 0 || tileW > a.tileCount || tileH > a.tileCount {
		return mgl32.Vec2{}, fmt.Errorf("%w: %dx%d", ErrNoSpace, width, height)
	}

	for y := 0; y <= a.tileCount-tileH; y++ {
		for x := 0; x <= a.tileCount-tileW; x++ {
			if a.footprintFree(x, y, tileW, tileH) {
				a.mark(x, y, tileW, tileH, owner)
				return mgl32.Vec2{
					float32(x) / float32(a.tileCount),
					float32(y) / float32(a.tileCount),
				}, nil
			}
		}
	}

	return mgl32.Vec2{}, fmt.Errorf("%w: %dx%d", ErrNoSpace, width, height)
}

// Deallocate frees every tile owned by owner and returns how many were freed.
func (a *Atlas) Deallocate(owner uuid.UUID) int {
	if owner == uuid.Nil {
		return 0
	}
	freed := 0
	for i, o := range a.tiles {
		if o == owner {
			a.tiles[i] = uuid.Nil
			freed++
		}
	}
	a.freeTiles += freed
	return freed
}

// Region returns the tile rectangle owned by owner.
func (a *Atlas) Region(owner uuid.UUID) (x, y, w, h int, ok bool) {
	minX, minY, maxX, maxY := a.tileCount, a.tileCount, -1, -1
	for ty := 0; ty < a.tileCount; ty++ {
		for tx := 0; tx < a.tileCount; tx++ {
			if a.tiles[ty*a.tileCount+tx] != owner || owner == uuid.Nil {
				continue
			}
			minX = min(minX, tx)
			minY = min(minY, ty)
			maxX = max(maxX, tx)
			maxY = max(maxY, ty)
		}
	}
	if maxX < 0 {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX - minX + 1, maxY - minY + 1, true
}

func (a *Atlas) footprintFree(x, y, w, h int) bool {
	for ty := y; ty < y+h; ty++ {
		row := a.tiles[ty*a.tileCount : (ty+1)*a.tileCount]
		for tx := x; tx < x+w; tx++ {
			if row[tx] != uuid.Nil {
				return false
			}
		}
	}
	return true
}

func (a *Atlas) mark(x, y, w, h int, owner uuid.UUID) {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			a.tiles[ty*a.tileCount+tx] = owner
		}
	}
	a.freeTiles -= w * h
}
