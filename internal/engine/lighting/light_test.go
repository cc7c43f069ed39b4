package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lightsched/internal/engine/bounds"
)

func TestLightKinds(t *testing.T) {
	tests := []struct {
		name    string
		light   *Light
		typ     Type
		sources int
	}{
		{"point", NewPointLight(mgl32.Vec3{1, 2, 3}, 5), TypePoint, 6},
		{"directional", NewDirectionalLight(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{}, 50), TypeDirectional, 1},
		{"spot", NewSpotLight(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 10, 60), TypeSpot, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.light.Type())
			assert.Equal(t, -1, tt.light.Index())
			assert.Empty(t, tt.light.ShadowSources())

			require.NoError(t, tt.light.SetCastsShadows(true))
			assert.Len(t, tt.light.ShadowSources(), tt.sources)
			assert.True(t, tt.light.NeedsShadowUpdate())

			require.NoError(t, tt.light.SetCastsShadows(false))
			assert.Empty(t, tt.light.ShadowSources())
			assert.False(t, tt.light.NeedsShadowUpdate())
		})
	}
}

func TestLightBounds(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		l := NewPointLight(mgl32.Vec3{1, 2, 3}, 5)
		l.performUpdate()
		assert.Equal(t, bounds.Sphere{Center: mgl32.Vec3{1, 2, 3}, Radius: 5}, l.Bounds())
	})

	t.Run("directional is infinite", func(t *testing.T) {
		l := NewDirectionalLight(mgl32.Vec3{1, -1, 0}, mgl32.Vec3{}, 50)
		l.performUpdate()
		assert.True(t, l.Bounds().IsInfinite())
	})

	t.Run("spot encloses the cone", func(t *testing.T) {
		for _, fov := range []float32{10, 45, 90, 150} {
			l := NewSpotLight(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 10, fov)
			l.performUpdate()
			b := l.Bounds()

			// apex and the tip along the axis lie inside
			assert.LessOrEqual(t, b.Center.Len(), b.Radius+1e-4, "fov %v", fov)
			tip := mgl32.Vec3{0, 0, -9.99}
			if fov <= 90 {
				assert.LessOrEqual(t, tip.Sub(b.Center).Len(), b.Radius+1e-4, "fov %v", fov)
			}
		}
	})
}

func TestLightSetters(t *testing.T) {
	l := NewPointLight(mgl32.Vec3{}, 5)
	require.NoError(t, l.SetCastsShadows(true))
	l.performUpdate()
	for _, src := range l.ShadowSources() {
		src.SetValid()
	}
	require.False(t, l.NeedsUpdate())
	require.False(t, l.NeedsShadowUpdate())

	l.SetPosition(mgl32.Vec3{0.0001, 0, 0})
	assert.False(t, l.NeedsUpdate(), "moves below the epsilon are ignored")

	l.SetPosition(mgl32.Vec3{1, 0, 0})
	assert.True(t, l.NeedsUpdate())
	assert.True(t, l.NeedsShadowUpdate())

	for _, src := range l.ShadowSources() {
		src.SetValid()
	}
	require.False(t, l.NeedsShadowUpdate())
	l.QueueShadowUpdate()
	assert.True(t, l.NeedsShadowUpdate())
	assert.Len(t, l.performShadowUpdate(), 6)

	l.performUpdate()
	l.SetColor(mgl32.Vec3{1, 0, 0})
	assert.True(t, l.NeedsUpdate())

	l.SetRadius(-1)
	assert.InDelta(t, 0.01, l.Radius(), 1e-6)

	s := NewSpotLight(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 1, 500)
	assert.Equal(t, float32(179), s.FOV())
}

func TestShadowSettingsFrozenWhenAttached(t *testing.T) {
	sys := newTestSystem(t, testOptions())

	l := NewPointLight(mgl32.Vec3{}, 5)
	require.NoError(t, sys.AddLight(l))

	assert.ErrorIs(t, l.SetCastsShadows(true), ErrAttached)
	assert.ErrorIs(t, l.SetShadowResolution(128), ErrAttached)
	assert.False(t, l.CastsShadows())

	sys.RemoveLight(l)
	assert.NoError(t, l.SetCastsShadows(true))
}

func TestLightRecord(t *testing.T) {
	l := NewSpotLight(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -1}, 10, 60)
	require.NoError(t, l.SetCastsShadows(true))
	l.sources[0].SetIndex(4)

	rec := l.Record()
	assert.Equal(t, uint32(TypeSpot), rec.Type)
	assert.Equal(t, uint32(1), rec.CastsShadows)
	assert.Equal(t, [MaxSourcesPerLight]int32{4, -1, -1, -1, -1, -1}, rec.SourceIndexes)
	assert.InDelta(t, 0.866, rec.SpotCos, 1e-3)

	buf := rec.Marshal()
	assert.Len(t, buf, LightRecordSize)
	assert.Equal(t, []byte{2, 0, 0, 0}, buf[12:16])
	assert.Equal(t, []byte{4, 0, 0, 0}, buf[48:52])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf[52:56])
}

func TestSunDirection(t *testing.T) {
	dir := SunDirection(0, 90)
	assert.InDelta(t, 1, dir.Len(), 1e-5)
	assert.InDelta(t, 1, dir.Y(), 1e-5)

	sun := NewSunLight(0, 90, mgl32.Vec3{}, 100)
	assert.Equal(t, TypeDirectional, sun.Type())
	assert.InDelta(t, -1, sun.Direction().Y(), 1e-5, "a sun at the zenith shines straight down")
}
