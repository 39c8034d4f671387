package recommend

import (
	"fmt"
	"strings"

	"menu-recommender/internal/pkg/common"
)

// PromptPair 一次模型呼叫用的 (user, system) prompt
type PromptPair struct {
	UserPrompt   string
	SystemPrompt string
}

// BuildMenuSearchPrompt 組裝菜單搜尋的 prompt 對
// 純函數：相同輸入必得相同輸出，不做任何 I/O
// 店家名稱只會來自傳入的 places；呼叫端要負責把 places 控制在 20 筆左右，
// 不然 prompt 會無限制膨脹
func BuildMenuSearchPrompt(
	likedItems []string,
	places []common.Place,
	dietaryRestrictions []string,
	experienceTypes []string,
	cuisineTypes []string,
) (PromptPair, error) {
	placesJSON, err := common.ToJSONIndent(places)
	if err != nil {
		return PromptPair{}, fmt.Errorf("failed to serialize places: %w", err)
	}

	withFilters := len(dietaryRestrictions) > 0 || len(experienceTypes) > 0

	var sb strings.Builder
	sb.WriteString(`You will receive a list of up to 20 restaurants in JSON format, each with location data.
Use this list to search the internet for menus from these restaurants.
Extract popular or signature food items from each menu, aiming to return a total of **up to 40 items** overall.

Some restaurants may not have public menus — if that's the case, skip them or infer likely menu items based on restaurant type or name.

For each menu item you return, include the following:
- "name" (of the menu item, as a string)
- "price" (as a number in USD, or null)
- "restaurant" (name of the restaurant from the input)
- "message" (a message to the user about why they might like the menu item, or why they should try it. Keep it to 100 characters or less.)
- "latitude" (the latitude of the restaurant)
- "longitude" (the longitude of the restaurant)
- "distance" (the distance from the user's current location to the restaurant in miles)
`)
	if withFilters {
		sb.WriteString(`- "matchesDietary" (true only if the item complies with every dietary restriction listed below)
- "matchesPreferences" (true only if the item fits the experience and cuisine preferences listed below)
`)
	}

	sb.WriteString(`
Please return **only** the result in this JSON format. Here's an example:

{
  "menu_items": [
    {
      "id": "1",
      "name": "Cheeseburger",
      "price": 9.99,
      "restaurant": "Bob's Burgers",
      "latitude": 37.774929,
      "longitude": -122.419416,
      "distance": "1.5",
      "message": "This is a great menu item for a family of 4."
    },
    ...
  ]
}

Here is a list of food items this user has liked in the past:
`)
	sb.WriteString(common.FormatList(likedItems))

	sb.WriteString("\nHere is a list of dietary restrictions this user has:\n")
	sb.WriteString(common.FormatDietaryRestrictions(dietaryRestrictions))

	if len(experienceTypes) > 0 {
		sb.WriteString("\nHere is a list of dining experiences this user prefers:\n")
		sb.WriteString(common.FormatList(experienceTypes))
	}
	if len(cuisineTypes) > 0 {
		sb.WriteString("\nHere is a list of cuisines this user prefers:\n")
		sb.WriteString(common.FormatList(cuisineTypes))
	}

	sb.WriteString(`
Give preference to restaurants and menu items that match or resemble these preferences.

Here is the input list of restaurants:
`)
	sb.WriteString(placesJSON)
	sb.WriteString("\n")

	system := `You are a helpful assistant that researches real-world data to help mobile users find local menu items.
You can read structured JSON input, search the internet for restaurant menus, and return formatted results.
Your goal is to return menu items in a clean, consistent JSON structure. Be accurate, practical, and concise.`
	if withFilters {
		system += `
When dietary restrictions are listed, be conservative: if you cannot tell whether an item complies with a restriction, exclude it rather than guessing.`
	}

	return PromptPair{
		UserPrompt:   sb.String(),
		SystemPrompt: system,
	}, nil
}

// BuildPlaceSearchPrompt 舊版店家搜尋的 prompt 對：
// 直接請模型找出附近的店家並回傳 places envelope
func BuildPlaceSearchPrompt(center common.Coordinate, foodType string) PromptPair {
	user := fmt.Sprintf(`Find %s within 5 miles of latitude %v and longitude %v. Moderate price, casual dining. Return up to 40 real places, unless you can only find fewer.
Include their names, distances, ratings, addresses, and coordinates. Do NOT make up places. Return only as valid JSON.`,
		foodType, center.Latitude, center.Longitude)

	system := fmt.Sprintf(`You are a helpful assistant that provides information about nearby %s.
Return the data in the following JSON format:
{
  "places": [
    {
      "name": string,
      "distance": string,
      "rating": number,
      "address": string,
      "latitude": number,
      "longitude": number
    }
  ]
}`, foodType)

	return PromptPair{UserPrompt: user, SystemPrompt: system}
}
