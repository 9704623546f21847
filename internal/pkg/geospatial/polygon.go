package geospatial

import "github.com/dkarolys/fleetpulse/internal/core/domain"

// PointInPolygon tests containment with the standard ray-casting
// algorithm: a horizontal ray from the point crosses the polygon
// boundary an odd number of times iff the point is inside. Polygons
// with fewer than 3 vertices contain nothing. The polygon is treated
// as implicitly closed (last vertex connects back to the first).
func PointInPolygon(p domain.GeoPoint, polygon []domain.GeoPoint) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := polygon[i], polygon[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			// Longitude of the edge at the ray's latitude.
			x := vi.Lng + (p.Lat-vi.Lat)*(vj.Lng-vi.Lng)/(vj.Lat-vi.Lat)
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PolygonBounds returns the bounding box of a polygon, used to skip the
// full ray cast for points that are obviously outside.
func PolygonBounds(polygon []domain.GeoPoint) domain.Bounds {
	if len(polygon) == 0 {
		return domain.Bounds{}
	}
	b := domain.Bounds{
		MinLat: polygon[0].Lat, MaxLat: polygon[0].Lat,
		MinLng: polygon[0].Lng, MaxLng: polygon[0].Lng,
	}
	for _, v := range polygon[1:] {
		if v.Lat < b.MinLat {
			b.MinLat = v.Lat
		}
		if v.Lat > b.MaxLat {
			b.MaxLat = v.Lat
		}
		if v.Lng < b.MinLng {
			b.MinLng = v.Lng
		}
		if v.Lng > b.MaxLng {
			b.MaxLng = v.Lng
		}
	}
	return b
}

// InBounds reports whether a point lies within a bounding box.
func InBounds(p domain.GeoPoint, b domain.Bounds) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
