// Package main runs the light system headless over a scripted scene and
// reports what the shadow scheduler did each frame.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightsched/internal/config"
	"github.com/Faultbox/lightsched/internal/engine/bounds"
	"github.com/Faultbox/lightsched/internal/engine/debug"
	"github.com/Faultbox/lightsched/internal/engine/lighting"
	"github.com/Faultbox/lightsched/internal/engine/passes"
	"github.com/Faultbox/lightsched/internal/engine/shadow"
	"github.com/Faultbox/lightsched/internal/logger"
)

var (
	flagLights = flag.Int("lights", 32, "Number of lights in the scene")
	flagFrames = flag.Int("frames", 120, "Number of frames to simulate")
	flagSeed   = flag.Uint64("seed", 1, "Scene random seed")
	flagDump   = flag.String("dump", "", "Write the final atlas occupancy PNG to this path")
	flagMovers = flag.Float64("movers", 0.1, "Fraction of lights moving every frame")
	flagGL     = flag.Bool("gl", false, "Render shadow maps with OpenGL in a hidden window")
	flagDepth  = flag.String("depth", "", "With -gl, write the final depth atlas PNG to this path")
)

const sceneExtent = 60

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Log.Named("shadowsim")
	log.Info("starting simulation",
		zap.Int("lights", *flagLights),
		zap.Int("frames", *flagFrames),
		zap.Int("atlas_size", cfg.Shadows.AtlasSize),
		zap.Int("max_updates", cfg.Shadows.MaxUpdatesPerFrame),
		zap.Bool("shadows", cfg.Shadows.Enabled),
	)

	if err := run(cfg, log); err != nil {
		log.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	reg := passes.NewRegistry(log.Named("passes"))
	rng := rand.New(rand.NewPCG(*flagSeed, *flagSeed^0x9e3779b97f4a7c15))
	target := &statsTarget{inner: shadow.NopTarget()}

	var gpu *glBackend
	if *flagGL {
		var err error
		gpu, err = newGLBackend(int32(cfg.Shadows.AtlasSize), log.Named("gl"))
		if err != nil {
			return err
		}
		defer gpu.Close()
		target.inner = gpu.target
	}

	sys, err := lighting.NewSystem(lighting.OptionsFromConfig(cfg), reg, target, log.Named("lighting"))
	if err != nil {
		return fmt.Errorf("creating light system: %w", err)
	}
	log.Debug("shader defines", zap.String("header", reg.Defines().Header()))

	if gpu != nil {
		if err := gpu.buildScene(reg.Defines(), rng); err != nil {
			return err
		}
	}

	if cfg.Culling.UseAuxBounds {
		sys.SetAuxBounds(bounds.AABB{
			Min: mgl32.Vec3{-sceneExtent / 4, -10, -sceneExtent / 4},
			Max: mgl32.Vec3{sceneExtent / 4, 10, sceneExtent / 4},
		})
	}

	lights := populate(sys, rng, *flagLights, cfg.Shadows.DefaultResolution, log)

	var totals struct {
		updates  int
		deferred int
		maxQueue int
	}

	for frame := 0; frame < *flagFrames; frame++ {
		sys.SetCullBounds(orbitFrustum(frame))
		animate(lights, rng, *flagMovers, frame)

		if err := sys.Update(); err != nil {
			if errors.Is(err, shadow.ErrAtlasExhausted) {
				dump(sys, log)
			}
			return err
		}

		st := sys.Stats()
		totals.updates += st.Updates
		totals.deferred += st.Deferred
		totals.maxQueue = max(totals.maxQueue, st.Queued)
	}

	st := sys.Stats()
	fmt.Printf("frames:            %d\n", st.Frame)
	fmt.Printf("lights:            %d (%d shadow sources)\n", st.Lights, st.Sources)
	fmt.Printf("shadow renders:    %d (%d regions submitted)\n", totals.updates, target.regions)
	fmt.Printf("deferred lights:   %d light-frames\n", totals.deferred)
	fmt.Printf("max queue length:  %d\n", totals.maxQueue)
	fmt.Printf("atlas tiles free:  %d / %d\n", st.FreeTiles, st.TotalTiles)
	for b := lighting.Bucket(0); b < lighting.NumBuckets; b++ {
		fmt.Printf("visible %-22s %d\n", b.String()+":", st.Visible[b])
	}

	dump(sys, log)
	if gpu != nil && *flagDepth != "" {
		if err := gpu.saveDepth(*flagDepth); err != nil {
			return err
		}
		log.Info("wrote depth atlas", zap.String("path", *flagDepth))
	}
	return nil
}

// populate adds a mix of light kinds. Every third light casts shadows.
func populate(sys *lighting.System, rng *rand.Rand, n, resolution int, log *zap.Logger) []*lighting.Light {
	lights := make([]*lighting.Light, 0, n+1)

	sun := lighting.NewSunLight(135, 40, mgl32.Vec3{}, sceneExtent)
	if err := sun.SetCastsShadows(true); err == nil {
		_ = sun.SetShadowResolution(resolution * 2)
	}
	if err := sys.AddLight(sun); err != nil {
		log.Warn("could not add sun", zap.Error(err))
	} else {
		lights = append(lights, sun)
	}

	for i := 0; i < n; i++ {
		pos := mgl32.Vec3{
			(rng.Float32()*2 - 1) * sceneExtent,
			1 + rng.Float32()*8,
			(rng.Float32()*2 - 1) * sceneExtent,
		}

		var l *lighting.Light
		if i%4 == 3 {
			dir := mgl32.Vec3{rng.Float32() - 0.5, -1, rng.Float32() - 0.5}
			l = lighting.NewSpotLight(pos, dir, 8+rng.Float32()*12, 30+rng.Float32()*60)
		} else {
			l = lighting.NewPointLight(pos, 3+rng.Float32()*10)
		}
		l.SetColor(mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()})

		if i%3 == 0 {
			_ = l.SetCastsShadows(true)
			_ = l.SetShadowResolution(resolution / (1 + i%2))
		}

		if err := sys.AddLight(l); err != nil {
			log.Warn("light not added", zap.Int("n", i), zap.Error(err))
			continue
		}
		lights = append(lights, l)
	}
	return lights
}

// animate moves a fraction of the lights on small circles.
func animate(lights []*lighting.Light, rng *rand.Rand, fraction float64, frame int) {
	t := float32(frame) * 0.05
	for _, l := range lights {
		if l.Type() == lighting.TypeDirectional || rng.Float64() >= fraction {
			continue
		}
		p := l.Position()
		l.SetPosition(mgl32.Vec3{p.X() + math32.Cos(t)*0.5, p.Y(), p.Z() + math32.Sin(t)*0.5})
	}
}

// orbitFrustum returns the view frustum of a camera circling the scene.
func orbitFrustum(frame int) bounds.Frustum {
	angle := float32(frame) * 0.02
	eye := mgl32.Vec3{math32.Cos(angle) * sceneExtent, 25, math32.Sin(angle) * sceneExtent}
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 4*sceneExtent)
	return bounds.FrustumFromMatrix(proj.Mul4(view))
}

func dump(sys *lighting.System, log *zap.Logger) {
	if *flagDump == "" {
		return
	}
	if err := debug.SaveAtlasPNG(sys.Atlas(), *flagDump, 8); err != nil {
		log.Error("failed to write atlas image", zap.Error(err))
		return
	}
	log.Info("wrote atlas image", zap.String("path", *flagDump))
}

// statsTarget counts submitted regions and forwards them.
type statsTarget struct {
	inner   shadow.RenderTarget
	regions int
}

func (s *statsTarget) RenderRegion(index int, rect shadow.Rect, cam shadow.Camera) {
	s.regions++
	s.inner.RenderRegion(index, rect, cam)
}

func (s *statsTarget) SetActiveRegions(n int) { s.inner.SetActiveRegions(n) }
