package place

import (
	"context"

	"menu-recommender/internal/core/geo"
	"menu-recommender/internal/infrastructure/config"
	"menu-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// fieldMask 一定要包含 places.types，下游的 prompt 會用到分類標籤
const fieldMask = "places.displayName,places.formattedAddress,places.location,places.rating,places.types"

// Gateway Google Places API 閘道
type Gateway struct {
	config *config.PlacesConfig
	client *resty.Client
}

// NewGateway 創建 Places 閘道
func NewGateway(cfg *config.PlacesConfig) *Gateway {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", cfg.APIKey).
		SetHeader("X-Goog-FieldMask", fieldMask)

	return &Gateway{
		config: cfg,
		client: client,
	}
}

// searchRequest searchNearby 的請求體
type searchRequest struct {
	LocationRestriction locationRestriction `json:"locationRestriction"`
	RankPreference      string              `json:"rankPreference"`
	MaxResultCount      int                 `json:"maxResultCount"`
	IncludedTypes       []string            `json:"includedTypes"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center common.Coordinate `json:"center"`
	Radius float64           `json:"radius"`
}

// searchResponse searchNearby 的回應體
// Places 以指標宣告，才能區分「成功但沒有 places 欄位」與空清單
type searchResponse struct {
	Places *[]wirePlace `json:"places"`
}

type wirePlace struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Rating *float64 `json:"rating,omitempty"`
	Types  []string `json:"types"`
}

// Search 以圓形範圍搜尋店家，radiusMeters <= 0 時使用設定的上限
// 回傳的 Place 尚未去重、尚未指派 id；distance 以搜尋中心計算
func (g *Gateway) Search(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
	radius := radiusMeters
	if radius <= 0 {
		radius = g.config.MaxRadiusMeters
	}

	body := searchRequest{
		LocationRestriction: locationRestriction{
			Circle: circle{Center: center, Radius: radius},
		},
		RankPreference: "DISTANCE",
		MaxResultCount: g.config.MaxResultCount,
		IncludedTypes:  categories,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		common.LogError("Places API 回傳錯誤狀態",
			zap.Int("status_code", resp.StatusCode()),
			zap.Float64("radius", radius),
		)
		return nil, common.NewUpstreamError("places", resp.StatusCode(), resp.String())
	}

	var parsed searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &parsed); err != nil {
		return nil, common.NewResponseShapeError("places", "places")
	}
	if parsed.Places == nil {
		return nil, common.NewResponseShapeError("places", "places")
	}

	places := make([]common.Place, 0, len(*parsed.Places))
	for _, wp := range *parsed.Places {
		places = append(places, common.Place{
			Name:      wp.DisplayName.Text,
			Address:   wp.FormattedAddress,
			Types:     wp.Types,
			Rating:    wp.Rating,
			Latitude:  wp.Location.Latitude,
			Longitude: wp.Location.Longitude,
			Distance: geo.DistanceMiles(center, common.Coordinate{
				Latitude:  wp.Location.Latitude,
				Longitude: wp.Location.Longitude,
			}),
		})
	}

	common.LogInfo("Places API 呼叫成功",
		zap.Int("count", len(places)),
		zap.Float64("radius", radius),
	)

	return places, nil
}

// Healthy 回報閘道是否可用（health check 用）
func (g *Gateway) Healthy() bool {
	return g.config.APIKey != "" && g.config.Endpoint != ""
}
