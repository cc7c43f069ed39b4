package lighting

import (
	"github.com/Faultbox/lightsched/internal/engine/bounds"
)

// Culler filters lights against the visible region and buckets the survivors.
// Culling never detaches a light; an invisible light just costs nothing this frame.
type Culler struct {
	camera bounds.Volume
	aux    bounds.Volume

	capacity [NumBuckets]int
	lists    [NumBuckets][]int32
	dropped  [NumBuckets]int
}

// NewCuller creates a culler with the given per-bucket capacities.
func NewCuller(capacity [NumBuckets]int) *Culler {
	c := &Culler{capacity: capacity}
	for b := range c.lists {
		c.lists[b] = make([]int32, 0, capacity[b])
	}
	return c
}

// SetCameraBounds sets the camera volume for the coming frames.
func (c *Culler) SetCameraBounds(v bounds.Volume) { c.camera = v }

// SetAuxBounds sets an additional volume (e.g. a GI grid); nil disables it.
func (c *Culler) SetAuxBounds(v bounds.Volume) { c.aux = v }

// HasCameraBounds reports whether a camera volume was set.
func (c *Culler) HasCameraBounds() bool { return c.camera != nil }

// Begin clears the lists of the previous frame.
func (c *Culler) Begin() {
	for b := range c.lists {
		c.lists[b] = c.lists[b][:0]
		c.dropped[b] = 0
	}
}

// Visible reports whether s intersects the camera volume or the auxiliary volume.
func (c *Culler) Visible(s bounds.Sphere) bool {
	if c.camera != nil && c.camera.IntersectsSphere(s) {
		return true
	}
	return c.aux != nil && c.aux.IntersectsSphere(s)
}

// Add appends a light slot to bucket b. Returns false when the bucket is full.
func (c *Culler) Add(b Bucket, slot int) bool {
	if len(c.lists[b]) >= c.capacity[b] {
		c.dropped[b]++
		return false
	}
	c.lists[b] = append(c.lists[b], int32(slot))
	return true
}

// List returns the slots of bucket b in scan order.
func (c *Culler) List(b Bucket) []int32 { return c.lists[b] }

// Lists returns every bucket list.
func (c *Culler) Lists() *[NumBuckets][]int32 { return &c.lists }

// Counts returns the number of lights per bucket.
func (c *Culler) Counts() [NumBuckets]int {
	var out [NumBuckets]int
	for b := range c.lists {
		out[b] = len(c.lists[b])
	}
	return out
}

// Dropped returns how many lights did not fit their bucket this frame.
func (c *Culler) Dropped() int {
	n := 0
	for _, d := range c.dropped {
		n += d
	}
	return n
}
