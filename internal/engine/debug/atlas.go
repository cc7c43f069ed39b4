// Package debug provides shadow atlas visualization utilities.
package debug

import (
	"hash/fnv"
	"image"
	"image/color"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/Faultbox/lightsched/internal/engine/shadow"
)

// FreeColor marks unreserved tiles.
var FreeColor = color.RGBA{R: 24, G: 24, B: 28, A: 255}

// RenderAtlas draws the tile occupancy of a, one cell per tile, each owner in
// its own color, scaled up by pixelsPerTile.
func RenderAtlas(a *shadow.Atlas, pixelsPerTile int) *image.RGBA {
	n := a.TileCount()
	grid := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			grid.SetRGBA(x, y, OwnerColor(a.Owner(x, y)))
		}
	}

	if pixelsPerTile <= 1 {
		return grid
	}
	out := image.NewRGBA(image.Rect(0, 0, n*pixelsPerTile, n*pixelsPerTile))
	draw.NearestNeighbor.Scale(out, out.Bounds(), grid, grid.Bounds(), draw.Src, nil)
	return out
}

// OwnerColor returns a stable bright color for owner, FreeColor for uuid.Nil.
func OwnerColor(owner uuid.UUID) color.RGBA {
	if owner == uuid.Nil {
		return FreeColor
	}
	h := fnv.New32a()
	h.Write(owner[:])
	v := h.Sum32()
	// keep every channel above the free color
	return color.RGBA{
		R: 64 + uint8(v)%192,
		G: 64 + uint8(v>>8)%192,
		B: 64 + uint8(v>>16)%192,
		A: 255,
	}
}
