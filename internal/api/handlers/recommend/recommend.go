package recommend

import (
	"errors"
	"net/http"

	aiservice "menu-recommender/internal/core/ai/service"
	"menu-recommender/internal/core/geo"
	"menu-recommender/internal/core/recommend"
	"menu-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecommendRequest 推薦請求：搜尋範圍 + 使用者偏好
// radius_meters 省略時可改給 viewport 的經度跨距，由伺服器換算半徑
// 座標用指標宣告：緯度 0、經度 0 都是合法值，不能跟「沒給」混為一談
type RecommendRequest struct {
	Latitude       *float64 `json:"latitude" binding:"required"`
	Longitude      *float64 `json:"longitude" binding:"required"`
	RadiusMeters   float64  `json:"radius_meters,omitempty"`
	LongitudeDelta float64  `json:"longitude_delta,omitempty"`

	LikedFoodItems      []string `json:"liked_food_items,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	ExperienceTypes     []string `json:"experience_types,omitempty"`
	CuisineTypes        []string `json:"cuisine_types,omitempty"`
}

// PlaceSearchRequest 舊版店家搜尋請求：直接請模型找店家
type PlaceSearchRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	FoodType  string   `json:"food_type" binding:"required"`
}

// Handler 推薦處理程序
type Handler struct {
	pipeline  *recommend.Pipeline
	aiService *aiservice.Service
}

// NewHandler 創建新的推薦處理程序
func NewHandler(pipeline *recommend.Pipeline, aiService *aiservice.Service) *Handler {
	return &Handler{
		pipeline:  pipeline,
		aiService: aiService,
	}
}

// HandleRecommend 執行一輪完整搜尋：找店家、去重、問模型、解析菜單
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}

	common.LogInfo("開始處理推薦請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	region, err := buildRegion(req)
	if err != nil {
		common.LogError("搜尋範圍無效",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Float64("latitude", *req.Latitude),
			zap.Float64("longitude", *req.Longitude),
			zap.Float64("radius_meters", req.RadiusMeters),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	profile := common.PreferenceProfile{
		LikedFoodItems:      req.LikedFoodItems,
		DietaryRestrictions: req.DietaryRestrictions,
		ExperienceTypes:     req.ExperienceTypes,
		CuisineTypes:        req.CuisineTypes,
	}

	result, err := h.pipeline.Run(c.Request.Context(), region, profile)
	if err != nil {
		writeRunError(c, requestID, err)
		return
	}

	common.LogInfo("推薦請求完成",
		zap.String("request_id", requestID),
		zap.Int("places", len(result.Places)),
		zap.Int("menu_items", len(result.MenuItems)),
		zap.Bool("cache_hit", result.CacheHit),
	)

	c.JSON(http.StatusOK, result)
}

// HandlePlaceSearch 舊版店家搜尋：不經過 Places API，直接請模型列出附近店家
func (h *Handler) HandlePlaceSearch(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}

	var req PlaceSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	center := common.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !center.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "latitude/longitude out of range",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	prompts := recommend.BuildPlaceSearchPrompt(center, req.FoodType)
	resp, err := h.aiService.Complete(c.Request.Context(), prompts.UserPrompt, prompts.SystemPrompt)
	if err != nil {
		writeRunError(c, requestID, err)
		return
	}

	places, err := recommend.ParsePlacesEnvelope(resp.Content)
	if err != nil {
		writeRunError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": places, "cache_hit": resp.CacheHit})
}

// buildRegion 把請求轉成合法的搜尋範圍
// 半徑優先序：radius_meters > viewport 跨距換算 > 拒絕
func buildRegion(req RecommendRequest) (common.SearchRegion, error) {
	center := common.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !center.Valid() {
		return common.SearchRegion{}, common.NewValidationError("latitude/longitude out of range")
	}

	radius := req.RadiusMeters
	if radius <= 0 && req.LongitudeDelta > 0 {
		radius = geo.RadiusFromViewport(req.LongitudeDelta)
	}

	region := common.SearchRegion{Center: center, RadiusMeters: radius}
	if !region.Valid() {
		return common.SearchRegion{}, common.NewValidationError("radius_meters must be within (0, 50000]")
	}
	return region, nil
}

// writeRunError 把管線錯誤映射到 HTTP 狀態碼
func writeRunError(c *gin.Context, requestID string, err error) {
	var upstream *common.UpstreamError
	var shape *common.ResponseShapeError
	var malformed *common.MalformedResponseError

	switch {
	case errors.Is(err, recommend.ErrRunInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"error": "a recommendation run is already in flight",
			"code":  common.ErrCodeRunInFlight,
		})
	case errors.As(err, &upstream):
		common.LogError("上游服務錯誤",
			zap.String("request_id", requestID),
			zap.String("service", upstream.Service),
			zap.Int("status_code", upstream.StatusCode),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeUpstreamError,
		})
	case errors.As(err, &shape):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeResponseShape,
		})
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeMalformedResponse,
		})
	case common.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
	default:
		common.LogError("推薦請求失敗",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  common.ErrCodeInternalError,
		})
	}
}
