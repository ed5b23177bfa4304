package location

import (
	"math"
	"math/rand"

	"ecocycle-backend/domain"
)

// metersPerDegree is the length of one degree of latitude in meters.
const metersPerDegree = 111132

// maxJitterLat bounds the cos(lat) divisor away from zero so a near-pole
// coordinate cannot produce unbounded longitude jitter.
const maxJitterLat = 89

const DefaultRadiusMeters = 200

// Jitterer perturbs coordinates by a bounded uniform random offset so a
// post never discloses the provider's exact address. The rand source is
// injectable so tests can pin the draw.
type Jitterer struct {
	radiusMeters float64
	rng          *rand.Rand
}

func NewJitterer(radiusMeters float64, rng *rand.Rand) *Jitterer {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Jitterer{radiusMeters: radiusMeters, rng: rng}
}

// Jitter adds an independent uniform offset in ±radius meters to each axis
// and converts to degrees, scaling longitude by 1/cos(lat). Latitude is
// clamped to ±89° before the divide.
func (j *Jitterer) Jitter(lat, lon float64) (float64, float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return 0, 0, domain.ErrInvalidCoordinate
	}

	clamped := lat
	if clamped > maxJitterLat {
		clamped = maxJitterLat
	} else if clamped < -maxJitterLat {
		clamped = -maxJitterLat
	}

	latJitter := j.uniform() / metersPerDegree
	lonJitter := j.uniform() / (metersPerDegree * math.Abs(math.Cos(clamped*math.Pi/180)))
	return lat + latJitter, lon + lonJitter, nil
}

// uniform draws in [-radius, radius) meters.
func (j *Jitterer) uniform() float64 {
	return (j.rng.Float64()*2 - 1) * j.radiusMeters
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
