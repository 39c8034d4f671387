package common

import (
	"fmt"
	"strings"
)

// Coordinate 地理座標（緯度 [-90,90]、經度 [-180,180]）
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid 檢查座標是否在合法範圍內
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// SearchRegion 圓形搜尋範圍（中心點 + 半徑公尺）
type SearchRegion struct {
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// MaxSearchRadiusMeters Places API 允許的半徑上限
const MaxSearchRadiusMeters = 50000.0

// Valid 檢查範圍是否合法：0 < radius <= MaxSearchRadiusMeters
func (r SearchRegion) Valid() bool {
	return r.Center.Valid() && r.RadiusMeters > 0 && r.RadiusMeters <= MaxSearchRadiusMeters
}

// Place 由 Places API 取得的店家
// ID 是單一批次內的序號字串，每次搜尋重新編，不可當作跨批次的穩定鍵
type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Types     []string `json:"types"`
	Rating    *float64 `json:"rating,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Distance  float64  `json:"distance"` // 與搜尋中心的距離（英里，兩位小數）
}

// MenuItem 模型研究菜單後產生的推薦餐點
// 欄位內容信任模型輸出，解析層只驗證外層 envelope 結構
type MenuItem struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Price              *float64 `json:"price"` // 美元，允許 null
	Restaurant         string   `json:"restaurant"`
	Message            string   `json:"message"` // 100 字以內的推薦理由
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Distance           string   `json:"distance"` // 英里
	MatchesDietary     *bool    `json:"matchesDietary,omitempty"`
	MatchesPreferences *bool    `json:"matchesPreferences,omitempty"`
}

// PreferenceProfile 呼叫端提供的偏好資料，僅存在於單次 pipeline 執行
type PreferenceProfile struct {
	LikedFoodItems      []string `json:"liked_food_items"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	ExperienceTypes     []string `json:"experience_types"`
	CuisineTypes        []string `json:"cuisine_types"`
}

// DietaryOptions 支援的飲食限制（固定清單）
var DietaryOptions = []string{
	"Vegan", "Vegetarian", "Keto", "Flexitarian", "Pescatarian", "Paleo",
	"Raw", "Gluten Free", "Grain Free", "Bulking", "Low Sodium",
	"Low Calorie", "High Protein", "Sugar Free", "Lactose Intolerant",
	"Egg Free", "Nut Free", "Soy Free", "Shellfish Free", "Nightshade Free",
	"Low-FODMAP", "Kosher", "Halal", "Cutting", "Alcohol Free", "Organic",
	"Diabetic", "Chrones",
}

// DietaryRubric 各飲食限制的判斷規則，會嵌進 prompt 讓模型照規則排除品項
var DietaryRubric = map[string]string{
	"Vegan":              "no animal products of any kind",
	"Vegetarian":         "no meat, poultry, or seafood",
	"Keto":               "very low carbohydrate, high fat",
	"Flexitarian":        "mostly plant-based, occasional meat acceptable",
	"Pescatarian":        "no meat or poultry, seafood allowed",
	"Paleo":              "no grains, legumes, dairy, or processed sugar",
	"Raw":                "nothing cooked above a low temperature",
	"Gluten Free":        "no wheat, barley, rye, or other gluten sources",
	"Grain Free":         "no grains of any kind, including rice and corn",
	"Bulking":            "calorie-dense, protein-forward dishes",
	"Low Sodium":         "avoid heavily salted or cured items",
	"Low Calorie":        "lighter dishes, avoid fried or cream-heavy items",
	"High Protein":       "protein-forward dishes",
	"Sugar Free":         "no added sugar",
	"Lactose Intolerant": "no milk, cream, or soft cheese",
	"Egg Free":           "no eggs or egg-based sauces",
	"Nut Free":           "no tree nuts or peanuts",
	"Soy Free":           "no soy, tofu, or soy sauce",
	"Shellfish Free":     "no shrimp, crab, lobster, or other shellfish",
	"Nightshade Free":    "no tomato, potato, pepper, or eggplant",
	"Low-FODMAP":         "avoid onion, garlic, beans, and high-FODMAP items",
	"Kosher":             "kosher dietary law compliant",
	"Halal":              "halal dietary law compliant",
	"Cutting":            "low calorie, high protein",
	"Alcohol Free":       "no alcohol, including in sauces",
	"Organic":            "prefer organic ingredients",
	"Diabetic":           "low sugar, low glycemic load",
	"Chrones":            "avoid common Crohn's trigger foods",
}

// Experiences 支援的用餐體驗（固定清單）
var Experiences = []string{
	"Breakfast Fast", "Breakfast Sit Down", "Brunch", "Lunch Fast",
	"Lunch Sit Down", "Lunch Business", "Dinner Fast", "Dinner Sit Down",
	"Dinner Business", "Late Night", "Desserts", "Drinks", "Coffee/Tea",
	"Hidden Gem", "Casual", "Fine Dining", "Family-Friendly",
	"Outdoor/Patio", "Ethnic/Cultural", "Romantic", "Budget-Friendly",
}

// Cuisines 支援的菜系顯示名稱（固定清單）
var Cuisines = []string{
	"Italian", "Mexican", "Chinese", "Japanese", "Thai", "Indian", "Greek",
	"Korean", "Vietnamese", "American",
}

// cuisineTypeMapping 菜系顯示名稱 → Places API 分類標籤
var cuisineTypeMapping = map[string]string{
	"Italian":    "italian_restaurant",
	"Mexican":    "mexican_restaurant",
	"Chinese":    "chinese_restaurant",
	"Japanese":   "japanese_restaurant",
	"Thai":       "thai_restaurant",
	"Indian":     "indian_restaurant",
	"Greek":      "greek_restaurant",
	"Korean":     "korean_restaurant",
	"Vietnamese": "vietnamese_restaurant",
	"American":   "american_restaurant",
}

// RestaurantType 取得菜系對應的分類標籤，未知菜系回傳 false
func RestaurantType(cuisine string) (string, bool) {
	t, ok := cuisineTypeMapping[cuisine]
	return t, ok
}

// RestaurantTypes 將菜系清單轉成分類標籤清單，未知菜系直接略過
func RestaurantTypes(cuisines []string) []string {
	var out []string
	for _, c := range cuisines {
		if t, ok := RestaurantType(c); ok {
			out = append(out, t)
		}
	}
	return out
}

// 預設座標（測試與文件用）
const (
	GoogleHQLatitude  = 37.78825
	GoogleHQLongitude = -122.4324
	ProvoLatitude     = 40.2337
	ProvoLongitude    = -111.6585
)

// FormatDietaryRestrictions 將飲食限制格式化為「名稱 (規則)」條列
func FormatDietaryRestrictions(restrictions []string) string {
	var sb strings.Builder
	for _, r := range restrictions {
		if rubric, ok := DietaryRubric[r]; ok {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", r, rubric))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", r))
		}
	}
	return sb.String()
}

// FormatList 將字串清單格式化為條列
func FormatList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return sb.String()
}
