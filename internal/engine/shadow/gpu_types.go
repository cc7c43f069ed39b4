package shadow

import (
	"encoding/binary"
	"math"
)

// SourceRecordSize is the std430 size of SourceRecord in bytes.
const SourceRecordSize = 96

// SourceRecord is the GPU representation of a shadow source.
type SourceRecord struct {
	MVP        [16]float32 // offset  0: view-projection of the shadow camera
	AtlasPos   [2]float32  // offset 64: normalized top-left in the atlas
	AtlasScale float32     // offset 72: normalized edge length in the atlas
	Resolution float32     // offset 76: shadow map size in pixels
	Position   [3]float32  // offset 80: camera position
	_pad       float32     // offset 92
}

// Record builds the GPU record of src for an atlas of atlasSize pixels.
func (s *Source) Record(atlasSize int) SourceRecord {
	rect := s.AtlasRect(atlasSize)
	return SourceRecord{
		MVP:        s.camera.ViewProjection(),
		AtlasPos:   [2]float32{rect.X, rect.Y},
		AtlasScale: rect.W,
		Resolution: float32(s.resolution),
		Position:   s.camera.Position,
	}
}

// Marshal serializes the record little-endian for GPU upload.
func (r *SourceRecord) Marshal() []byte {
	buf := make([]byte, SourceRecordSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i, v := range r.MVP {
		put(i*4, v)
	}
	put(64, r.AtlasPos[0])
	put(68, r.AtlasPos[1])
	put(72, r.AtlasScale)
	put(76, r.Resolution)
	put(80, r.Position[0])
	put(84, r.Position[1])
	put(88, r.Position[2])
	return buf
}
