package lighting

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/lightsched/internal/config"
	"github.com/Faultbox/lightsched/internal/engine/bounds"
	"github.com/Faultbox/lightsched/internal/engine/shadow"
	"github.com/Faultbox/lightsched/internal/engine/slots"
)

var (
	// ErrAlreadyAttached is returned when adding a light twice.
	ErrAlreadyAttached = errors.New("light already attached")
	// ErrNoCullBounds is returned by Update before SetCullBounds was called.
	ErrNoCullBounds = errors.New("cull bounds not set")
)

// Options configures a System.
type Options struct {
	AtlasSize              int
	TileSize               int
	MaxUpdatesPerFrame     int
	RenderShadows          bool
	AlwaysUpdateAllShadows bool
	Limits                 Limits
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		AtlasSize:          8192,
		TileSize:           shadow.DefaultTileSize,
		MaxUpdatesPerFrame: 2,
		RenderShadows:      true,
		Limits:             DefaultLimits(),
	}
}

// OptionsFromConfig maps the configuration file onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AtlasSize:              cfg.Shadows.AtlasSize,
		TileSize:               cfg.Shadows.TileSize,
		MaxUpdatesPerFrame:     cfg.Shadows.MaxUpdatesPerFrame,
		RenderShadows:          cfg.Shadows.Enabled,
		AlwaysUpdateAllShadows: cfg.Shadows.AlwaysUpdateAll,
		Limits: Limits{
			MaxLights:        cfg.Lights.MaxTotal,
			MaxShadowSources: cfg.Lights.MaxShadowSources,
			PerBucket: [NumBuckets]int{
				BucketPoint:             cfg.Lights.MaxPoint,
				BucketPointShadow:       cfg.Lights.MaxPointShadow,
				BucketDirectional:       cfg.Lights.MaxDirectional,
				BucketDirectionalShadow: cfg.Lights.MaxDirectionalShadow,
				BucketSpot:              cfg.Lights.MaxSpot,
				BucketSpotShadow:        cfg.Lights.MaxSpotShadow,
			},
		},
	}
}

// Stats describes the last completed frame.
type Stats struct {
	Frame      uint64
	Visible    [NumBuckets]int
	Deferred   int // shadowed lights withheld until their maps are rendered
	Dropped    int // visible lights that did not fit their bucket
	Updates    int // shadow sources rendered
	Queued     int // shadow sources still waiting
	FreeTiles  int
	TotalTiles int
	Lights     int
	Sources    int
}

// System owns the light and shadow-source pools, the atlas and the update
// scheduler, and produces the visible-light buffer once per frame.
//
// AddLight, RemoveLight and Update are serialized; the published buffer can be
// read concurrently through Buffer().Snapshot().
type System struct {
	mu   sync.Mutex
	opts Options
	log  *zap.Logger

	lights    *slots.Registry[*Light]
	sources   *slots.Registry[*shadow.Source]
	atlas     *shadow.Atlas
	scheduler *shadow.Scheduler
	culler    *Culler
	buffer    *VisibleBuffer

	lightRecords     []LightRecord
	sourceRecords    []shadow.SourceRecord
	updateRecords    []shadow.SourceRecord
	numShadowUpdates int32

	visible []int
	frame   uint64
	stats   Stats
}

// NewSystem creates a light system. reg and target may be nil.
func NewSystem(opts Options, reg Registry, target shadow.RenderTarget, log *zap.Logger) (*System, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUpdatesPerFrame < 1 {
		return nil, fmt.Errorf("max updates per frame must be positive, got %d", opts.MaxUpdatesPerFrame)
	}

	atlas, err := shadow.NewAtlas(opts.AtlasSize, opts.TileSize)
	if err != nil {
		return nil, fmt.Errorf("creating shadow atlas: %w", err)
	}
	log.Debug("created shadow atlas",
		zap.Int("size", atlas.Size()),
		zap.Int("tile_size", atlas.TileSize()),
		zap.Int("tiles", atlas.TotalTiles()),
	)

	s := &System{
		opts:          opts,
		log:           log,
		lights:        slots.New[*Light](opts.Limits.MaxLights),
		sources:       slots.New[*shadow.Source](opts.Limits.MaxShadowSources),
		atlas:         atlas,
		scheduler:     shadow.NewScheduler(atlas, opts.MaxUpdatesPerFrame, target, log.Named("shadow")),
		culler:        NewCuller(opts.Limits.PerBucket),
		buffer:        NewVisibleBuffer(opts.Limits.PerBucket),
		lightRecords:  make([]LightRecord, opts.Limits.MaxLights),
		sourceRecords: make([]shadow.SourceRecord, opts.Limits.MaxShadowSources),
		updateRecords: make([]shadow.SourceRecord, opts.MaxUpdatesPerFrame),
		visible:       make([]int, 0, opts.Limits.MaxLights),
	}

	if reg != nil {
		s.registerBindings(reg)
	}
	return s, nil
}

// AddLight attaches l. Shadow settings must be final before this call.
// On ErrCapacityExceeded nothing is attached and l is left unchanged.
func (s *System) AddLight(l *Light) error {
	if l == nil {
		return errors.New("add light: nil light")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l.attached {
		s.log.Warn("light is already attached", zap.Int("light", l.index))
		return ErrAlreadyAttached
	}

	disableShadows := l.castShadows && !s.opts.RenderShadows
	sources := l.sources
	if disableShadows {
		sources = nil
	}

	// Slots first so a rejected light comes back untouched.
	index, err := s.lights.Allocate(l)
	if err != nil {
		s.log.Error("cannot allocate light slot", zap.Int("capacity", s.lights.Cap()))
		return fmt.Errorf("light slots: %w", err)
	}
	for i, src := range sources {
		si, err := s.sources.Allocate(src)
		if err != nil {
			s.log.Error("cannot allocate shadow source slots",
				zap.Int("needed", len(sources)),
				zap.Int("free", s.sources.Free()+i),
			)
			for _, taken := range sources[:i] {
				s.sources.Release(taken.Index())
				taken.SetIndex(-1)
			}
			s.lights.Release(index)
			return fmt.Errorf("shadow source slots: %w", err)
		}
		src.SetIndex(si)
	}

	if disableShadows {
		s.log.Warn("attached shadowed light but shadows are disabled; disabling its shadows",
			zap.Stringer("type", l.Type()))
		l.setCastsShadows(false)
	}
	if l.castShadows {
		s.clampResolutions(l)
	}

	l.index = index
	l.attached = true
	l.deferredFrames = 0
	l.QueueUpdate()
	l.QueueShadowUpdate()

	s.log.Debug("attached light",
		zap.Int("light", index),
		zap.Stringer("type", l.Type()),
		zap.Int("sources", len(l.sources)),
	)
	return nil
}

// clampResolutions fixes shadow map sizes that are not a multiple of the tile
// size or fall outside [tile size, atlas size].
func (s *System) clampResolutions(l *Light) {
	for _, src := range l.sources {
		requested := src.Resolution()
		adjusted := ClampResolution(requested, s.atlas.TileSize(), s.atlas.Size())
		if adjusted == requested {
			continue
		}
		s.log.Warn("invalid shadow map resolution, adjusting",
			zap.Stringer("type", l.Type()),
			zap.Stringer("source", src.UID()),
			zap.Int("requested", requested),
			zap.Int("adjusted", adjusted),
		)
		src.SetResolution(adjusted)
	}
	if len(l.sources) > 0 {
		l.shadowResolution = l.sources[0].Resolution()
	}
}

// ClampResolution rounds resolution to the nearest multiple of tile within [tile, atlasSize].
func ClampResolution(resolution, tile, atlasSize int) int {
	adjusted := (resolution + tile/2) / tile * tile
	if adjusted < tile {
		adjusted = tile
	}
	if adjusted > atlasSize {
		adjusted = atlasSize / tile * tile
	}
	return adjusted
}

// RemoveLight detaches l. The queue entries, atlas tiles and slots of its
// shadow sources are released before the light slot. Removing a detached
// light is a no-op.
func (s *System) RemoveLight(l *Light) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !l.attached {
		return
	}
	if cur, ok := s.lights.Get(l.index); !ok || cur != l {
		return
	}

	for _, src := range l.sources {
		s.scheduler.Remove(src)
		if idx := src.Index(); idx >= 0 {
			s.sources.Release(idx)
			s.sourceRecords[idx] = shadow.SourceRecord{}
		}
		src.SetIndex(-1)
	}

	index := l.index
	s.lights.Release(index)
	s.lightRecords[index] = LightRecord{}
	l.index = -1
	l.attached = false

	s.log.Debug("detached light", zap.Int("light", index), zap.Stringer("type", l.Type()))
}

// SetCullBounds sets the camera volume. Must be called before the first Update.
func (s *System) SetCullBounds(v bounds.Volume) {
	s.mu.Lock()
	s.culler.SetCameraBounds(v)
	s.mu.Unlock()
}

// SetAuxBounds sets an extra volume lights stay visible in, e.g. a GI grid. nil disables it.
func (s *System) SetAuxBounds(v bounds.Volume) {
	s.mu.Lock()
	s.culler.SetAuxBounds(v)
	s.mu.Unlock()
}

// Update runs the per-frame pipeline:
//  1. recompute data of dirty lights
//  2. cull against the current bounds
//  3. queue shadow refreshes of visible lights, withholding lights whose maps
//     will not be ready this frame
//  4. render up to the per-frame budget of queued shadow sources
//  5. write and publish the visible-light buffer
//
// A wrapped shadow.ErrAtlasExhausted means the frame must not be presented;
// the buffer is not published in that case.
func (s *System) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.culler.HasCameraBounds() {
		return ErrNoCullBounds
	}
	s.frame++

	// 1. Light data.
	s.lights.Each(func(index int, l *Light) {
		if s.opts.AlwaysUpdateAllShadows {
			l.QueueShadowUpdate()
		}
		if l.NeedsUpdate() {
			l.performUpdate()
			s.lightRecords[index] = l.Record()
		}
	})

	// 2. Culling.
	s.visible = s.visible[:0]
	s.lights.Each(func(index int, l *Light) {
		if s.culler.Visible(l.bounds) {
			s.visible = append(s.visible, index)
		}
	})

	// 3. Shadow queueing and bucketing.
	s.culler.Begin()
	deferred := 0
	for _, index := range s.visible {
		l, _ := s.lights.Get(index)
		if s.queueShadows(l) {
			deferred++
			continue
		}
		b := BucketFor(l.Type(), l.castShadows)
		if !s.culler.Add(b, index) {
			s.log.Warn("visible light bucket full, light skipped",
				zap.Int("light", index),
				zap.Stringer("bucket", b),
				zap.Int("capacity", s.opts.Limits.PerBucket[b]),
			)
		}
	}

	// 4. Shadow rendering.
	rendered, err := s.scheduler.Drain()
	for i, src := range rendered {
		rec := src.Record(s.atlas.Size())
		s.sourceRecords[src.Index()] = rec
		s.updateRecords[i] = rec
	}
	s.numShadowUpdates = int32(len(rendered))
	if err != nil {
		return fmt.Errorf("frame %d: %w", s.frame, err)
	}

	// 5. Output buffer.
	s.buffer.Write(s.culler.Lists())
	s.buffer.Publish()

	s.stats = Stats{
		Frame:      s.frame,
		Visible:    s.culler.Counts(),
		Deferred:   deferred,
		Dropped:    s.culler.Dropped(),
		Updates:    len(rendered),
		Queued:     s.scheduler.Pending(),
		FreeTiles:  s.atlas.FreeTiles(),
		TotalTiles: s.atlas.TotalTiles(),
		Lights:     s.lights.Len(),
		Sources:    s.sources.Len(),
	}
	if ce := s.log.Check(zap.DebugLevel, "frame"); ce != nil {
		ce.Write(
			zap.Uint64("frame", s.frame),
			zap.Ints("visible", s.stats.Visible[:]),
			zap.Int("deferred", deferred),
			zap.Int("updates", len(rendered)),
			zap.Int("queued", s.stats.Queued),
			zap.Int("free_tiles", s.stats.FreeTiles),
		)
	}
	return nil
}

// queueShadows queues the invalid sources of a visible light. It returns true
// when the light has to be withheld this frame because one of its maps was
// never rendered and will not be rendered by this frame's drain.
func (s *System) queueShadows(l *Light) bool {
	if !l.castShadows || !l.NeedsShadowUpdate() {
		l.deferredFrames = 0
		return false
	}

	withhold := false
	for _, src := range l.performShadowUpdate() {
		pos := s.scheduler.Enqueue(src)
		if !s.scheduler.WithinBudget(pos) && !src.HasAtlasPos() {
			withhold = true
		}
	}

	if withhold {
		l.deferredFrames++
		s.log.Debug("delaying light until its shadow maps are rendered",
			zap.Int("light", l.index),
			zap.Int("frames", l.deferredFrames),
		)
		return true
	}
	l.deferredFrames = 0
	return false
}

// Stats returns the statistics of the last completed frame.
func (s *System) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Buffer returns the visible-light buffer.
func (s *System) Buffer() *VisibleBuffer { return s.buffer }

// Atlas returns the shadow atlas.
func (s *System) Atlas() *shadow.Atlas { return s.atlas }

// Light returns the light attached at index.
func (s *System) Light(index int) (*Light, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lights.Get(index)
}

// PendingShadowUpdates returns the queued shadow-source slots in order.
func (s *System) PendingShadowUpdates() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Queued()
}

// LightRecords returns the GPU records of every light slot. Frame thread only.
func (s *System) LightRecords() []LightRecord { return s.lightRecords }

// SourceRecords returns the GPU records of every shadow-source slot. Frame thread only.
func (s *System) SourceRecords() []shadow.SourceRecord { return s.sourceRecords }

// UpdateRecords returns the records of the sources rendered last frame. Frame thread only.
func (s *System) UpdateRecords() []shadow.SourceRecord {
	return s.updateRecords[:s.numShadowUpdates]
}
