package lighting

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightRecordSize is the std430 size of LightRecord in bytes.
const LightRecordSize = 80

// LightRecord is the GPU representation of a light.
type LightRecord struct {
	Position      [3]float32                // offset  0
	Type          uint32                    // offset 12: see Type
	Color         [3]float32                // offset 16
	Radius        float32                   // offset 28
	Direction     [3]float32                // offset 32: normalized (directional/spot)
	SpotCos       float32                   // offset 44: cos(half cone angle), spot only
	SourceIndexes [MaxSourcesPerLight]int32 // offset 48: shadow-source slots, -1 unused
	CastsShadows  uint32                    // offset 72
	_pad          uint32                    // offset 76
}

// Record builds the GPU record of the light.
func (l *Light) Record() LightRecord {
	rec := LightRecord{
		Position:      l.position,
		Type:          uint32(l.Type()),
		Color:         l.color,
		Radius:        l.radius,
		Direction:     l.direction,
		SourceIndexes: l.sourceIndexes(),
	}
	if l.Type() == TypeSpot {
		rec.SpotCos = math32.Cos(mgl32.DegToRad(l.fov) / 2)
	}
	if l.castShadows {
		rec.CastsShadows = 1
	}
	return rec
}

// Marshal serializes the record little-endian for GPU upload.
func (r *LightRecord) Marshal() []byte {
	buf := make([]byte, LightRecordSize)
	putF := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	putU := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
	}

	putF(0, r.Position[0])
	putF(4, r.Position[1])
	putF(8, r.Position[2])
	putU(12, r.Type)
	putF(16, r.Color[0])
	putF(20, r.Color[1])
	putF(24, r.Color[2])
	putF(28, r.Radius)
	putF(32, r.Direction[0])
	putF(36, r.Direction[1])
	putF(40, r.Direction[2])
	putF(44, r.SpotCos)
	for i, idx := range r.SourceIndexes {
		putU(48+i*4, uint32(idx))
	}
	putU(72, r.CastsShadows)
	return buf
}
