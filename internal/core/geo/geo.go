package geo

import (
	"math"

	"menu-recommender/internal/pkg/common"
)

const (
	// earthRadiusMiles 地球半徑（英里）
	earthRadiusMiles = 3958.8
	// metersPerDegree 經度一度約略的公尺數
	metersPerDegree = 111000.0
	// maxViewportRadiusMeters 由地圖視窗推導半徑的上限
	// 刻意壓在 API 上限之下，讓搜尋結果集中在畫面附近
	maxViewportRadiusMeters = 5000.0
)

// DistanceMiles 計算兩座標間的大圓距離（haversine），回傳英里、取兩位小數
// 對稱：DistanceMiles(a,b) == DistanceMiles(b,a)；a == b 時必為 0
func DistanceMiles(a, b common.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusMiles*c*100) / 100
}

// RadiusFromViewport 由地圖視窗的經度跨度推導搜尋半徑（公尺）
// 永遠落在 [0, 5000]
func RadiusFromViewport(longitudeDeltaDegrees float64) float64 {
	radius := (longitudeDeltaDegrees / 2) * metersPerDegree
	if radius < 0 {
		return 0
	}
	return math.Min(radius, maxViewportRadiusMeters)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
