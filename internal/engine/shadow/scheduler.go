package shadow

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrAtlasExhausted is returned when a source cannot be placed even at the
// minimum tile size. The frame must not be presented.
var ErrAtlasExhausted = errors.New("shadow atlas exhausted")

// Scheduler refreshes invalid shadow sources under a per-frame budget.
//
// Sources wait in a deduplicated FIFO. Each Drain takes at most budget sources
// from the front, places them in the atlas if needed and hands them to the
// render target. Sources selected by one Drain are considered rendered by the next.
type Scheduler struct {
	atlas   *Atlas
	queue   *Queue
	sources map[int]*Source
	budget  int
	target  RenderTarget
	log     *zap.Logger

	rendering []*Source
}

// NewScheduler creates a scheduler drawing into atlas through target.
func NewScheduler(atlas *Atlas, budget int, target RenderTarget, log *zap.Logger) *Scheduler {
	if budget < 1 {
		budget = 1
	}
	if target == nil {
		target = NopTarget()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		atlas:   atlas,
		queue:   NewQueue(),
		sources: make(map[int]*Source),
		budget:  budget,
		target:  target,
		log:     log,
	}
}

// Atlas returns the atlas sources are packed into.
func (s *Scheduler) Atlas() *Atlas { return s.atlas }

// Budget returns the maximum number of sources rendered per Drain.
func (s *Scheduler) Budget() int { return s.budget }

// Pending returns the number of queued sources.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Queued returns the queued source indices in order.
func (s *Scheduler) Queued() []int { return s.queue.Items() }

// Enqueue queues src for a refresh and returns its queue position.
// Queuing an already queued source keeps its position.
func (s *Scheduler) Enqueue(src *Source) int {
	pos := s.queue.Push(src.Index())
	s.sources[src.Index()] = src
	src.setState(Queued)
	return pos
}

// WithinBudget reports whether a source at queue position pos is rendered by the next Drain.
func (s *Scheduler) WithinBudget(pos int) bool {
	return pos >= 0 && pos < s.budget
}

// Remove cancels every pending action for src and returns its atlas tiles.
// It must run before the source slot is released.
func (s *Scheduler) Remove(src *Source) {
	if s.queue.Remove(src.Index()) {
		s.log.Debug("dropped queued shadow update", zap.Int("source", src.Index()))
	}
	delete(s.sources, src.Index())

	for i, r := range s.rendering {
		if r == src {
			s.rendering = append(s.rendering[:i], s.rendering[i+1:]...)
			break
		}
	}

	if src.HasAtlasPos() {
		s.atlas.Deallocate(src.UID())
		src.ClearAtlasPos()
	}
}

// Drain renders up to budget queued sources and returns them in render order.
func (s *Scheduler) Drain() ([]*Source, error) {
	// Whatever was submitted last frame has been consumed by now.
	for _, src := range s.rendering {
		if src.State() == Rendering {
			src.setState(Fresh)
		}
	}
	s.rendering = s.rendering[:0]

	front := s.queue.Peek(s.budget)
	selected := make([]*Source, 0, len(front))

	for i, id := range front {
		src := s.sources[id]

		if !src.HasAtlasPos() {
			if err := s.place(src); err != nil {
				s.finish(selected)
				return selected, err
			}
		}

		src.Update()
		s.target.RenderRegion(i, src.AtlasRect(s.atlas.Size()), src.Camera())
		src.SetValid()
		src.setState(Rendering)
		selected = append(selected, src)
	}

	s.finish(selected)
	return selected, nil
}

func (s *Scheduler) finish(selected []*Source) {
	for _, id := range s.queue.PopFront(len(selected)) {
		delete(s.sources, id)
	}
	s.rendering = append(s.rendering, selected...)
	s.target.SetActiveRegions(len(selected))
}

// place reserves atlas space for src, shrinking it to a single tile when the
// requested size does not fit.
func (s *Scheduler) place(src *Source) error {
	size := src.Resolution()
	pos, err := s.atlas.Reserve(size, size, src.UID())
	if errors.Is(err, ErrNoSpace) && size != s.atlas.TileSize() {
		s.log.Warn("no atlas space for shadow map, reducing resolution",
			zap.Int("source", src.Index()),
			zap.Int("requested", size),
			zap.Int("adjusted", s.atlas.TileSize()),
		)
		size = s.atlas.TileSize()
		src.SetResolution(size)
		pos, err = s.atlas.Reserve(size, size, src.UID())
	}
	if err != nil {
		s.log.Error("shadow atlas is full",
			zap.Int("source", src.Index()),
			zap.Int("free_tiles", s.atlas.FreeTiles()),
			zap.Int("total_tiles", s.atlas.TotalTiles()),
		)
		return fmt.Errorf("%w: source %d: %v", ErrAtlasExhausted, src.Index(), err)
	}
	src.AssignAtlasPos(pos)
	return nil
}
