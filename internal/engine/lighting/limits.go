package lighting

// Bucket groups visible lights by kind and shadow status.
// The order is the order of the output buffer.
type Bucket int

const (
	BucketPoint Bucket = iota
	BucketPointShadow
	BucketDirectional
	BucketDirectionalShadow
	BucketSpot
	BucketSpotShadow

	NumBuckets = 6
)

var bucketNames = [NumBuckets]string{
	"PointLight",
	"PointLightShadow",
	"DirectionalLight",
	"DirectionalLightShadow",
	"SpotLight",
	"SpotLightShadow",
}

func (b Bucket) String() string {
	if b < 0 || int(b) >= NumBuckets {
		return "unknown"
	}
	return bucketNames[b]
}

// BucketFor returns the bucket of a light of type t.
func BucketFor(t Type, shadowed bool) Bucket {
	b := Bucket(int(t) * 2)
	if shadowed {
		b++
	}
	return b
}

// Limits bounds every fixed-capacity pool of the light system.
type Limits struct {
	MaxLights        int             // light slots
	MaxShadowSources int             // shadow-source slots
	PerBucket        [NumBuckets]int // visible lights per bucket and frame
}

// DefaultLimits returns the stock pool sizes.
func DefaultLimits() Limits {
	return Limits{
		MaxLights:        256,
		MaxShadowSources: 64,
		PerBucket: [NumBuckets]int{
			BucketPoint:             150,
			BucketPointShadow:       10,
			BucketDirectional:       4,
			BucketDirectionalShadow: 2,
			BucketSpot:              50,
			BucketSpotShadow:        10,
		},
	}
}
