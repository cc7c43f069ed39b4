package shadow

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type region struct {
	index int
	rect  Rect
	cam   Camera
}

type recordingTarget struct {
	regions []region
	active  []int
}

func (r *recordingTarget) RenderRegion(index int, rect Rect, cam Camera) {
	r.regions = append(r.regions, region{index, rect, cam})
}

func (r *recordingTarget) SetActiveRegions(count int) {
	r.active = append(r.active, count)
}

func newSources(n, resolution int) []*Source {
	out := make([]*Source, n)
	for i := range out {
		out[i] = NewSource(resolution)
		out[i].SetIndex(i)
		out[i].SetPos(mgl32.Vec3{float32(i), 0, 0})
		out[i].LookAt(mgl32.Vec3{float32(i), 0, -1})
	}
	return out
}

func indices(srcs []*Source) []int {
	out := make([]int, len(srcs))
	for i, s := range srcs {
		out[i] = s.Index()
	}
	return out
}

func TestQueueDedup(t *testing.T) {
	q := NewQueue()
	assert.Equal(t, 0, q.Push(7))
	assert.Equal(t, 1, q.Push(3))
	assert.Equal(t, 0, q.Push(7), "re-push keeps the original position")
	assert.Equal(t, 2, q.Push(9))
	assert.Equal(t, []int{7, 3, 9}, q.Items())

	assert.True(t, q.Remove(3))
	assert.False(t, q.Remove(3))
	assert.Equal(t, []int{7, 9}, q.Items())

	assert.Equal(t, []int{7}, q.PopFront(1))
	assert.False(t, q.Contains(7))
	assert.Equal(t, 1, q.Push(7), "popped ids can be queued again at the back")
	assert.Equal(t, []int{9, 7}, q.Items())
}

func TestSchedulerScenarioB(t *testing.T) {
	atlas, err := NewAtlas(512, 32)
	require.NoError(t, err)
	target := &recordingTarget{}
	s := NewScheduler(atlas, 2, target, nil)

	srcs := newSources(5, 32)
	for _, src := range srcs {
		s.Enqueue(src)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, s.Queued())

	done, err := s.Drain()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices(done))
	assert.Equal(t, []int{2, 3, 4}, s.Queued())
	assert.Equal(t, Rendering, srcs[0].State())
	assert.True(t, srcs[0].IsValid())
	assert.Equal(t, Queued, srcs[2].State())

	done, err = s.Drain()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, indices(done))
	assert.Equal(t, []int{4}, s.Queued())
	assert.Equal(t, Fresh, srcs[0].State(), "sources rendered last frame become fresh")
	assert.Equal(t, Fresh, srcs[1].State())

	assert.Equal(t, []int{2, 2}, target.active)
	require.Len(t, target.regions, 4)
	assert.Equal(t, 0, target.regions[2].index)
	assert.Equal(t, 1, target.regions[3].index)
}

func TestSchedulerBudgetNeverExceeded(t *testing.T) {
	atlas, err := NewAtlas(1024, 32)
	require.NoError(t, err)
	s := NewScheduler(atlas, 3, nil, nil)

	srcs := newSources(10, 64)
	for _, src := range srcs {
		s.Enqueue(src)
	}

	var order []int
	for s.Pending() > 0 {
		before := s.Queued()
		done, err := s.Drain()
		require.NoError(t, err)
		require.LessOrEqual(t, len(done), 3)
		order = append(order, indices(done)...)
		// Remainder keeps its relative order.
		assert.Equal(t, before[len(done):], s.Queued())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestSchedulerEnqueueIdempotent(t *testing.T) {
	atlas, err := NewAtlas(512, 32)
	require.NoError(t, err)
	s := NewScheduler(atlas, 1, nil, nil)

	srcs := newSources(3, 32)
	assert.Equal(t, 0, s.Enqueue(srcs[0]))
	assert.Equal(t, 1, s.Enqueue(srcs[1]))
	assert.Equal(t, 0, s.Enqueue(srcs[0]))
	assert.Equal(t, 2, s.Enqueue(srcs[2]))
	assert.Equal(t, 3, s.Pending())

	assert.True(t, s.WithinBudget(0))
	assert.False(t, s.WithinBudget(1))
	assert.False(t, s.WithinBudget(-1))
}

func TestSchedulerPlacesOnce(t *testing.T) {
	atlas, err := NewAtlas(512, 32)
	require.NoError(t, err)
	s := NewScheduler(atlas, 4, nil, nil)

	src := newSources(1, 64)[0]
	s.Enqueue(src)
	_, err = s.Drain()
	require.NoError(t, err)
	pos, ok := src.AtlasPos()
	require.True(t, ok)
	free := atlas.FreeTiles()

	src.Invalidate()
	assert.Equal(t, Invalidated, src.State())
	s.Enqueue(src)
	_, err = s.Drain()
	require.NoError(t, err)

	again, _ := src.AtlasPos()
	assert.Equal(t, pos, again, "re-rendering keeps the reservation")
	assert.Equal(t, free, atlas.FreeTiles())
}

func TestSchedulerShrinksWhenFull(t *testing.T) {
	atlas, err := NewAtlas(128, 32) // 4x4 tiles
	require.NoError(t, err)
	s := NewScheduler(atlas, 2, nil, nil)

	srcs := newSources(2, 96)
	s.Enqueue(srcs[0])
	s.Enqueue(srcs[1])

	done, err := s.Drain()
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, 96, srcs[0].Resolution())
	assert.Equal(t, 32, srcs[1].Resolution(), "second map shrinks to one tile")
	assert.True(t, srcs[1].HasAtlasPos())
}

func TestSchedulerAtlasExhausted(t *testing.T) {
	atlas, err := NewAtlas(128, 32)
	require.NoError(t, err)
	target := &recordingTarget{}
	s := NewScheduler(atlas, 3, target, nil)

	srcs := newSources(3, 64)
	for _, src := range srcs[:2] {
		s.Enqueue(src)
	}
	// Fill the last free tiles so the shrink retry also fails.
	_, err = s.Drain()
	require.NoError(t, err)
	for atlas.FreeTiles() > 0 {
		extra := NewSource(32)
		_, err := atlas.Reserve(32, 32, extra.UID())
		require.NoError(t, err)
	}

	s.Enqueue(srcs[2])
	done, err := s.Drain()
	assert.True(t, errors.Is(err, ErrAtlasExhausted))
	assert.Empty(t, done)
	assert.Equal(t, []int{2}, s.Queued(), "failed source stays queued")
	assert.False(t, srcs[2].IsValid())
}

func TestSchedulerRemove(t *testing.T) {
	atlas, err := NewAtlas(512, 32)
	require.NoError(t, err)
	s := NewScheduler(atlas, 1, nil, nil)

	srcs := newSources(3, 64)
	for _, src := range srcs {
		s.Enqueue(src)
	}
	_, err = s.Drain()
	require.NoError(t, err)
	require.True(t, srcs[0].HasAtlasPos())

	// Remove one source while rendering and one while queued.
	s.Remove(srcs[0])
	s.Remove(srcs[2])

	assert.False(t, srcs[0].HasAtlasPos())
	assert.Equal(t, atlas.TotalTiles(), atlas.FreeTiles())
	assert.Equal(t, []int{1}, s.Queued())

	done, err := s.Drain()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices(done))
	assert.Equal(t, Rendering, srcs[0].State(), "removed source is not touched again")
}

func TestSourceRecord(t *testing.T) {
	atlas, err := NewAtlas(512, 32)
	require.NoError(t, err)
	s := NewScheduler(atlas, 1, nil, nil)
	src := newSources(1, 128)[0]
	s.Enqueue(src)
	_, err = s.Drain()
	require.NoError(t, err)

	rec := src.Record(atlas.Size())
	assert.Equal(t, float32(0.25), rec.AtlasScale)
	assert.Equal(t, float32(128), rec.Resolution)
	assert.Len(t, rec.Marshal(), SourceRecordSize)

	x, y, w, h := src.AtlasRect(atlas.Size()).Pixels(atlas.Size())
	assert.Equal(t, [4]int32{0, 0, 128, 128}, [4]int32{x, y, w, h})
}
