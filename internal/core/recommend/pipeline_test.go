package recommend

import (
	"context"
	"errors"
	"testing"

	aiservice "menu-recommender/internal/core/ai/service"
	"menu-recommender/internal/pkg/common"
)

type fakeSearcher struct {
	searchFunc func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error)
	calls      int
}

func (f *fakeSearcher) Search(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
	f.calls++
	return f.searchFunc(ctx, center, categories, radiusMeters)
}

type fakeModel struct {
	completeFunc func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error)
	calls        int
}

func (f *fakeModel) Complete(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
	f.calls++
	return f.completeFunc(ctx, userPrompt, systemPrompt)
}

func testRegion() common.SearchRegion {
	return common.SearchRegion{
		Center:       common.Coordinate{Latitude: common.ProvoLatitude, Longitude: common.ProvoLongitude},
		RadiusMeters: 5000,
	}
}

func TestPipelineRun(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			dup := common.Place{Name: "Pizza Palace", Address: "123 Main St", Latitude: 40.25, Longitude: -111.65}
			other := common.Place{Name: "Slice of Heaven", Address: "456 Center St", Latitude: 40.26, Longitude: -111.66}
			return []common.Place{dup, other, dup}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			return &aiservice.Response{Content: "```json\n" + sampleReply + "\n```"}, nil
		},
	}

	p := NewPipeline(searcher, model)
	if p.State() != StateIdle {
		t.Fatalf("initial state = %q, want %q", p.State(), StateIdle)
	}

	result, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{
		LikedFoodItems: []string{"Pizza"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Places) != 2 {
		t.Fatalf("expected 2 deduplicated places, got %d", len(result.Places))
	}
	if result.Places[0].ID != "0" || result.Places[1].ID != "1" {
		t.Errorf("place ids = %q, %q, want ordinal ids", result.Places[0].ID, result.Places[1].ID)
	}
	if len(result.MenuItems) != 1 || result.MenuItems[0].Name != "Cheeseburger" {
		t.Errorf("unexpected menu items: %+v", result.MenuItems)
	}
	if p.State() != StateReady {
		t.Errorf("state = %q, want %q", p.State(), StateReady)
	}
	if p.LastResult() != result {
		t.Error("LastResult does not return the committed result")
	}
}

func TestPipelineRunSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return nil, common.NewUpstreamError("places", 500, "boom")
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			t.Fatal("model must not be called when the place search fails")
			return nil, nil
		},
	}

	p := NewPipeline(searcher, model)
	_, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{})

	var upstream *common.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *common.UpstreamError", err)
	}
	if upstream.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", upstream.StatusCode)
	}
	if model.calls != 0 {
		t.Errorf("model was called %d times, want 0", model.calls)
	}
	if p.State() != StateFailed {
		t.Errorf("state = %q, want %q", p.State(), StateFailed)
	}
}

func TestPipelineRunMalformedModelResponse(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return []common.Place{{Name: "Pizza Palace", Address: "123 Main St"}}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			return &aiservice.Response{Content: "this is not json"}, nil
		},
	}

	p := NewPipeline(searcher, model)
	_, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{})

	var malformed *common.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want *common.MalformedResponseError", err)
	}
	if p.State() != StateFailed {
		t.Errorf("state = %q, want %q", p.State(), StateFailed)
	}
	if p.LastResult() != nil {
		t.Error("failed run must not commit a result")
	}
}

// 失敗的一輪不得覆寫前一輪成功的結果
func TestPipelineRunFailureKeepsPreviousResult(t *testing.T) {
	searchErr := error(nil)
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			if searchErr != nil {
				return nil, searchErr
			}
			return []common.Place{{Name: "Pizza Palace", Address: "123 Main St"}}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			return &aiservice.Response{Content: sampleReply}, nil
		},
	}

	p := NewPipeline(searcher, model)
	first, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	searchErr = common.NewUpstreamError("places", 503, "unavailable")
	if _, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{}); err == nil {
		t.Fatal("second run should have failed")
	}

	if p.State() != StateFailed {
		t.Errorf("state = %q, want %q", p.State(), StateFailed)
	}
	if p.LastResult() != first {
		t.Error("failed run overwrote the previous committed result")
	}
}

func TestPipelineRunInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			close(started)
			<-release
			return []common.Place{}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			return &aiservice.Response{Content: sampleReply}, nil
		},
	}

	p := NewPipeline(searcher, model)
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{})
		done <- err
	}()

	<-started
	if p.State() != StateLoading {
		t.Errorf("state = %q, want %q", p.State(), StateLoading)
	}
	if _, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{}); !errors.Is(err, ErrRunInFlight) {
		t.Errorf("concurrent run error = %v, want ErrRunInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state after completion = %q, want %q", p.State(), StateReady)
	}
}

func TestPipelineRunEmptyPlaces(t *testing.T) {
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			return []common.Place{}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			t.Fatal("model must not be called when no places were found")
			return nil, nil
		},
	}

	p := NewPipeline(searcher, model)
	result, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Places) != 0 || len(result.MenuItems) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if model.calls != 0 {
		t.Errorf("model was called %d times, want 0", model.calls)
	}
	if p.State() != StateReady {
		t.Errorf("state = %q, want %q", p.State(), StateReady)
	}
}

func TestPipelineRunCuisineCategories(t *testing.T) {
	var got []string
	searcher := &fakeSearcher{
		searchFunc: func(ctx context.Context, center common.Coordinate, categories []string, radiusMeters float64) ([]common.Place, error) {
			got = categories
			return []common.Place{}, nil
		},
	}
	model := &fakeModel{
		completeFunc: func(ctx context.Context, userPrompt, systemPrompt string) (*aiservice.Response, error) {
			return &aiservice.Response{Content: sampleReply}, nil
		},
	}

	p := NewPipeline(searcher, model)
	_, err := p.Run(context.Background(), testRegion(), common.PreferenceProfile{
		CuisineTypes: []string{"Italian", "Thai"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("categories = %v, want 2 mapped place types", got)
	}
}
