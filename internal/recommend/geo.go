package recommend

import (
	"math"

	"github.com/raphaelgruber/wayword-go/internal/models"
)

const earthRadiusMeters = 6371000.0

// distanceMeters returns the great-circle distance between two coordinates
// using the haversine formula.
func distanceMeters(a, b models.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lng * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lng * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|). Mismatched lengths or a
// zero-magnitude vector yield 0.0; it never panics.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
