package recommend

import (
	"strings"
	"testing"

	"menu-recommender/internal/pkg/common"
)

func samplePlaces() []common.Place {
	rating := 4.5
	return []common.Place{
		{
			ID:        "1",
			Name:      "Pizza Palace",
			Address:   "123 Main St",
			Types:     []string{"pizza_restaurant"},
			Rating:    &rating,
			Latitude:  40.25,
			Longitude: -111.65,
			Distance:  1.2,
		},
	}
}

func TestBuildMenuSearchPrompt(t *testing.T) {
	prompts, err := BuildMenuSearchPrompt(
		[]string{"Margherita Pizza", "Pad Thai"},
		samplePlaces(),
		nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("BuildMenuSearchPrompt returned error: %v", err)
	}

	for _, want := range []string{
		"up to 20 restaurants",
		"up to 40 items",
		"Keep it to 100 characters or less",
		`"menu_items"`,
		"Cheeseburger",
		"Margherita Pizza",
		"Pad Thai",
		"Pizza Palace",
		"123 Main St",
	} {
		if !strings.Contains(prompts.UserPrompt, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}

	if strings.Contains(prompts.UserPrompt, "matchesDietary") {
		t.Error("user prompt mentions matchesDietary without any restrictions")
	}
	if strings.Contains(prompts.SystemPrompt, "conservative") {
		t.Error("system prompt has the conservative clause without any restrictions")
	}
	if !strings.Contains(prompts.SystemPrompt, "JSON") {
		t.Error("system prompt missing JSON instruction")
	}
}

func TestBuildMenuSearchPromptWithRestrictions(t *testing.T) {
	prompts, err := BuildMenuSearchPrompt(
		[]string{"Falafel"},
		samplePlaces(),
		[]string{"Vegan", "Nut Free"},
		[]string{"Fine Dining"},
		[]string{"Italian"},
	)
	if err != nil {
		t.Fatalf("BuildMenuSearchPrompt returned error: %v", err)
	}

	for _, want := range []string{
		"matchesDietary",
		"matchesPreferences",
		"Vegan",
		"Nut Free",
		"Fine Dining",
		"Italian",
	} {
		if !strings.Contains(prompts.UserPrompt, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if !strings.Contains(prompts.SystemPrompt, "conservative") {
		t.Error("system prompt missing the conservative exclusion clause")
	}
}

func TestBuildMenuSearchPromptDeterministic(t *testing.T) {
	liked := []string{"Tacos"}
	dietary := []string{"Vegetarian"}

	a, err := BuildMenuSearchPrompt(liked, samplePlaces(), dietary, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildMenuSearchPrompt(liked, samplePlaces(), dietary, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical inputs produced different prompt pairs")
	}
}

func TestBuildPlaceSearchPrompt(t *testing.T) {
	prompts := BuildPlaceSearchPrompt(common.Coordinate{Latitude: 40.2338, Longitude: -111.6585}, "pizza places")

	if !strings.Contains(prompts.UserPrompt, "40.2338") {
		t.Error("user prompt missing latitude")
	}
	if !strings.Contains(prompts.UserPrompt, "pizza places") {
		t.Error("user prompt missing food type")
	}
	if !strings.Contains(prompts.SystemPrompt, `"places"`) {
		t.Error("system prompt missing places envelope")
	}
}
