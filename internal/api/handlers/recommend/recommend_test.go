package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	aiservice "menu-recommender/internal/core/ai/service"
	recommendCore "menu-recommender/internal/core/recommend"
	"menu-recommender/internal/infrastructure/config"
	"menu-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type fakeSearcher struct {
	searchFunc func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error)
}

func (f *fakeSearcher) Search(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
	return f.searchFunc(ctx, center, categories, radiusMeters)
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	return f.reply, f.err
}

const modelReply = `{"menu_items": [{"id": "1", "name": "Cheeseburger", "price": 9.99, "restaurant": "Bob's Burgers", "latitude": 37.774929, "longitude": -122.419416, "distance": "1.5", "message": "Great for families."}]}`

func newTestHandler(searcher recommendCore.PlaceSearcher, completer aiservice.Completer) *Handler {
	cfg := &config.Config{}
	svc := aiservice.NewServiceWithClient(cfg, completer, nil)
	pipeline := recommendCore.NewPipeline(searcher, svc)
	return NewHandler(pipeline, svc)
}

func performRequest(h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/test", h)

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRecommend(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return []common.Place{{Name: "Bob's Burgers", Address: "1 Ocean Ave", Latitude: 37.774929, Longitude: -122.419416}}, nil
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: "```json\n" + modelReply + "\n```"})

	w := performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 5000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}

	var result recommendCore.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(result.Places) != 1 || result.Places[0].ID != "0" {
		t.Errorf("unexpected places: %+v", result.Places)
	}
	if len(result.MenuItems) != 1 || result.MenuItems[0].Name != "Cheeseburger" {
		t.Errorf("unexpected menu items: %+v", result.MenuItems)
	}
}

// 緯度 0 / 經度 0 是合法座標，不能被 binding 層當成缺欄位擋掉
func TestHandleRecommendZeroCoordinates(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			if center.Latitude != 0 || center.Longitude != 0 {
				t.Errorf("center = %+v, want (0, 0)", center)
			}
			return []common.Place{}, nil
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: modelReply})

	w := performRequest(h.HandleRecommend, `{"latitude": 0, "longitude": 0, "radius_meters": 5000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}

func TestHandleRecommendMissingCoordinates(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{})

	cases := []struct {
		name string
		body string
	}{
		{"no latitude", `{"longitude": -111.6585, "radius_meters": 5000}`},
		{"no longitude", `{"latitude": 40.2337, "radius_meters": 5000}`},
		{"empty body", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(h.HandleRecommend, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleRecommendInvalidBody(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{})

	w := performRequest(h.HandleRecommend, `{"latitude": "not a number"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleRecommendInvalidRegion(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{})

	cases := []struct {
		name string
		body string
	}{
		{"latitude out of range", `{"latitude": 95, "longitude": 0.1, "radius_meters": 5000}`},
		{"radius too large", `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 60000}`},
		{"radius missing", `{"latitude": 40.2337, "longitude": -111.6585}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(h.HandleRecommend, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleRecommendViewportRadius(t *testing.T) {
	var gotRadius float64
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			gotRadius = radiusMeters
			return []common.Place{}, nil
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: modelReply})

	w := performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "longitude_delta": 0.01}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	// (0.01 / 2) * 111000 = 555
	if gotRadius < 554.9 || gotRadius > 555.1 {
		t.Errorf("radius = %v, want 555", gotRadius)
	}
}

func TestHandleRecommendUpstreamFailure(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return nil, common.NewUpstreamError("places", 500, "boom")
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: modelReply})

	w := performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 5000}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["code"] != common.ErrCodeUpstreamError {
		t.Errorf("code = %v, want %q", resp["code"], common.ErrCodeUpstreamError)
	}
}

func TestHandleRecommendMalformedModelReply(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return []common.Place{{Name: "Bob's Burgers", Address: "1 Ocean Ave"}}, nil
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: "this is not json"})

	w := performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 5000}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["code"] != common.ErrCodeMalformedResponse {
		t.Errorf("code = %v, want %q", resp["code"], common.ErrCodeMalformedResponse)
	}
}

func TestHandleRecommendInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			close(started)
			<-release
			return []common.Place{}, nil
		},
	}
	h := newTestHandler(searcher, &fakeCompleter{reply: modelReply})

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 5000}`)
	}()

	<-started
	w := performRequest(h.HandleRecommend, `{"latitude": 40.2337, "longitude": -111.6585, "radius_meters": 5000}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["code"] != common.ErrCodeRunInFlight {
		t.Errorf("code = %v, want %q", resp["code"], common.ErrCodeRunInFlight)
	}

	close(release)
	if first := <-firstDone; first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}
}

func TestHandlePlaceSearch(t *testing.T) {
	reply := `{"places": [{"name": "Pizza Palace", "distance": 1.2, "rating": 4.5, "address": "123 Main St", "latitude": 40.25, "longitude": -111.65}]}`
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{reply: reply})

	w := performRequest(h.HandlePlaceSearch, `{"latitude": 40.2337, "longitude": -111.6585, "food_type": "pizza places"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Places []common.Place `json:"places"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Places) != 1 || resp.Places[0].Name != "Pizza Palace" {
		t.Errorf("unexpected places: %+v", resp.Places)
	}
}

func TestHandlePlaceSearchZeroCoordinates(t *testing.T) {
	reply := `{"places": []}`
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{reply: reply})

	w := performRequest(h.HandlePlaceSearch, `{"latitude": 0, "longitude": 0, "food_type": "pizza places"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}

func TestHandlePlaceSearchMissingFoodType(t *testing.T) {
	h := newTestHandler(&fakeSearcher{}, &fakeCompleter{})

	w := performRequest(h.HandlePlaceSearch, `{"latitude": 40.2337, "longitude": -111.6585}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
