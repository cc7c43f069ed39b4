package lighting

// Registry receives the GPU bindings and shader defines the light system exposes
// to the render passes.
type Registry interface {
	// RegisterStatic binds a value once.
	RegisterStatic(name string, value any)
	// RegisterDynamic binds a value resolved again every time it is needed.
	RegisterDynamic(name string, bind func() any)
	// RegisterDefine adds a shader preprocessor define.
	RegisterDefine(name string, value any)
}

// Binding names.
const (
	BindAllLights            = "allLights"
	BindAllShadowSources     = "allShadowSources"
	BindShadowUpdateSources  = "shadowUpdateSources"
	BindRenderedLightsBuffer = "renderedLightsBuffer"
	BindNumShadowUpdates     = "numShadowUpdates"
)

func (s *System) registerBindings(reg Registry) {
	reg.RegisterDynamic(BindAllLights, func() any { return s.LightRecords() })
	reg.RegisterDynamic(BindAllShadowSources, func() any { return s.SourceRecords() })
	reg.RegisterDynamic(BindShadowUpdateSources, func() any { return s.UpdateRecords() })
	reg.RegisterStatic(BindRenderedLightsBuffer, s.buffer)
	reg.RegisterStatic(BindNumShadowUpdates, &s.numShadowUpdates)

	lim := s.opts.Limits
	reg.RegisterDefine("MAX_VISIBLE_LIGHTS", lim.MaxLights)
	reg.RegisterDefine("MAX_POINT_LIGHTS", lim.PerBucket[BucketPoint])
	reg.RegisterDefine("MAX_SHADOWED_POINT_LIGHTS", lim.PerBucket[BucketPointShadow])
	reg.RegisterDefine("MAX_DIRECTIONAL_LIGHTS", lim.PerBucket[BucketDirectional])
	reg.RegisterDefine("MAX_SHADOWED_DIRECTIONAL_LIGHTS", lim.PerBucket[BucketDirectionalShadow])
	reg.RegisterDefine("MAX_SPOT_LIGHTS", lim.PerBucket[BucketSpot])
	reg.RegisterDefine("MAX_SHADOWED_SPOT_LIGHTS", lim.PerBucket[BucketSpotShadow])
	reg.RegisterDefine("RENDERED_LIGHTS_HEADER_SIZE", HeaderSize)
	reg.RegisterDefine("SHADOW_MAX_TOTAL_MAPS", lim.MaxShadowSources)
	reg.RegisterDefine("SHADOW_MAP_ATLAS_SIZE", s.atlas.Size())
	reg.RegisterDefine("SHADOW_MAP_ATLAS_TILE_SIZE", s.atlas.TileSize())
	reg.RegisterDefine("SHADOW_MAX_UPDATES_PER_FRAME", s.opts.MaxUpdatesPerFrame)
	if s.opts.RenderShadows {
		reg.RegisterDefine("USE_SHADOWS", 1)
	}
}
