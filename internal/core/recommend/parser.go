package recommend

import (
	"encoding/json"
	"strings"

	"menu-recommender/internal/pkg/common"
)

// ParseMenuItems 把模型回覆解析成 MenuItem 清單
// 只驗證外層 envelope：menu_items 必須存在且是陣列，欄位內容信任模型輸出
// 任何解析失敗都回傳 MalformedResponseError，原始回覆由呼叫端記錄
func ParseMenuItems(raw string) ([]common.MenuItem, error) {
	cleaned := common.StripCodeFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, common.NewMalformedResponseError("empty model response", nil)
	}

	var envelope map[string]json.RawMessage
	if err := common.ParseJSON(cleaned, &envelope); err != nil {
		return nil, common.NewMalformedResponseError("response is not valid JSON", err)
	}

	rawItems, ok := envelope["menu_items"]
	if !ok {
		return nil, common.NewMalformedResponseError("response missing menu_items field", nil)
	}

	var items []common.MenuItem
	if err := common.ParseJSONBytes(rawItems, &items); err != nil {
		return nil, common.NewMalformedResponseError("menu_items is not a list of menu items", err)
	}
	if items == nil {
		items = []common.MenuItem{}
	}
	return items, nil
}

// ParsePlacesEnvelope 舊版店家搜尋回覆的解析：places envelope
func ParsePlacesEnvelope(raw string) ([]common.Place, error) {
	cleaned := common.StripCodeFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, common.NewMalformedResponseError("empty model response", nil)
	}

	var envelope map[string]json.RawMessage
	if err := common.ParseJSON(cleaned, &envelope); err != nil {
		return nil, common.NewMalformedResponseError("response is not valid JSON", err)
	}

	rawPlaces, ok := envelope["places"]
	if !ok {
		return nil, common.NewMalformedResponseError("response missing places field", nil)
	}

	var places []common.Place
	if err := common.ParseJSONBytes(rawPlaces, &places); err != nil {
		return nil, common.NewMalformedResponseError("places is not a list of places", err)
	}
	if places == nil {
		places = []common.Place{}
	}
	return places, nil
}
