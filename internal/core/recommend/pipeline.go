package recommend

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	aiservice "menu-recommender/internal/core/ai/service"
	"menu-recommender/internal/core/place"
	"menu-recommender/internal/pkg/common"
)

// State 管線狀態
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// ErrRunInFlight 已有一輪搜尋在進行中，新請求直接拒絕
var ErrRunInFlight = errors.New("a recommendation run is already in flight")

// PlaceSearcher 店家搜尋介面，測試時以假實作替換
type PlaceSearcher interface {
	Search(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error)
}

// ModelService 模型完成服務介面
type ModelService interface {
	Complete(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error)
}

// Result 一輪完整搜尋的產出：去重後的店家與模型推薦的餐點
type Result struct {
	Places    []common.Place    `json:"places"`
	MenuItems []common.MenuItem `json:"menu_items"`
	CacheHit  bool              `json:"cache_hit"`
}

// Pipeline 串起「找店家 → 組 prompt → 問模型 → 解析」的整輪流程
// 結果的提交是原子的：要嘛整包成功，要嘛維持上一輪的結果不動
type Pipeline struct {
	places PlaceSearcher
	model  ModelService

	mu       sync.Mutex
	state    State
	inFlight bool
	seq      uint64 // 最新一輪的序號，舊輪完成後不得覆寫新輪的結果
	result   *Result
	lastErr  error
}

// NewPipeline 創建推薦管線
func NewPipeline(places PlaceSearcher, model ModelService) *Pipeline {
	return &Pipeline{
		places: places,
		model:  model,
		state:  StateIdle,
	}
}

// State 回傳目前的管線狀態
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastResult 回傳最近一輪成功的結果；從未成功過則為 nil
func (p *Pipeline) LastResult() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Run 執行一輪完整搜尋
// 已有一輪在進行中時立即回傳 ErrRunInFlight，不排隊也不取消舊輪
// 任一階段失敗就整輪終止，後續階段（包含模型呼叫）不會執行
func (p *Pipeline) Run(ctx context.Context, region common.SearchRegion, profile common.PreferenceProfile) (*Result, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrRunInFlight
	}
	p.inFlight = true
	p.state = StateLoading
	p.seq++
	mySeq := p.seq
	p.mu.Unlock()

	result, err := p.run(ctx, region, profile)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	// 只有最新一輪可以提交結果
	if mySeq == p.seq {
		if err != nil {
			p.state = StateFailed
			p.lastErr = err
		} else {
			p.state = StateReady
			p.result = result
			p.lastErr = nil
		}
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, region common.SearchRegion, profile common.PreferenceProfile) (*Result, error) {
	categories := common.RestaurantTypes(profile.CuisineTypes)

	raw, err := p.places.Search(ctx, region.Center, categories, region.RadiusMeters)
	if err != nil {
		common.LogError("店家搜尋失敗", zap.Error(err))
		return nil, err
	}

	places := place.Dedupe(raw)
	if len(categories) > 0 {
		places = place.FilterByTypes(places, categories)
	}
	places = place.AssignOrdinalIDs(places)

	common.LogInfo("店家搜尋完成",
		zap.Int("fetched", len(raw)),
		zap.Int("kept", len(places)))

	if len(places) == 0 {
		return &Result{Places: []common.Place{}, MenuItems: []common.MenuItem{}}, nil
	}

	prompts, err := BuildMenuSearchPrompt(
		profile.LikedFoodItems,
		places,
		profile.DietaryRestrictions,
		profile.ExperienceTypes,
		profile.CuisineTypes,
	)
	if err != nil {
		return nil, err
	}

	resp, err := p.model.Complete(ctx, prompts.UserPrompt, prompts.SystemPrompt)
	if err != nil {
		common.LogError("模型呼叫失敗", zap.Error(err))
		return nil, err
	}

	items, err := ParseMenuItems(resp.Content)
	if err != nil {
		common.LogError("模型回應解析失敗",
			zap.Error(err),
			zap.String("response", resp.Content))
		return nil, err
	}

	return &Result{Places: places, MenuItems: items, CacheHit: resp.CacheHit}, nil
}
