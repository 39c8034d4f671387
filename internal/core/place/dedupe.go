package place

import (
	"encoding/json"
	"strconv"

	"menu-recommender/internal/pkg/common"
)

// Dedupe 移除重複店家，保留首次出現的順序
// 重複的判定是整筆結構相等：以序列化後的字串當鍵比對
func Dedupe(places []common.Place) []common.Place {
	seen := make(map[string]struct{}, len(places))
	out := make([]common.Place, 0, len(places))
	for _, p := range places {
		key, err := json.Marshal(p)
		if err != nil {
			// Place 全是可序列化欄位，理論上不會走到這裡；保守起見視為不重複
			out = append(out, p)
			continue
		}
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		out = append(out, p)
	}
	return out
}

// FilterByTypes 只保留 types 與 filterTypes 至少有一個交集的店家
func FilterByTypes(places []common.Place, filterTypes []string) []common.Place {
	allow := make(map[string]struct{}, len(filterTypes))
	for _, t := range filterTypes {
		allow[t] = struct{}{}
	}

	out := make([]common.Place, 0, len(places))
	for _, p := range places {
		for _, t := range p.Types {
			if _, ok := allow[t]; ok {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// AssignOrdinalIDs 依序指派批次內的序號 id（去重之後才呼叫）
// 這是唯一會寫 Place.ID 的地方；id 只在單一批次內有意義
func AssignOrdinalIDs(places []common.Place) []common.Place {
	for i := range places {
		places[i].ID = strconv.Itoa(i)
	}
	return places
}
