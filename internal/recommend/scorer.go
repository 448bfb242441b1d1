package recommend

import (
	"math"
	"sort"
)

const (
	qualityWeight   = 40
	popularityCap   = 20
	votesPerPoint   = 100
	alignmentPoints = 20
)

// Score 推荐分 = 评分质量(0-40) + 投票热度(0-20) + 类型匹配(20)。
// matched 为候选来源的类型，nil 表示非类型匹配来源。
// 类型匹配目前是固定加分，不区分偏好强弱。
func Score(c Candidate, matched *GenreAffinity) float64 {
	quality := c.VoteAverage / 10 * qualityWeight
	popularity := math.Min(float64(c.VoteCount)/votesPerPoint, popularityCap)
	score := quality + popularity
	if matched != nil {
		score += alignmentPoints
	}
	return score
}

// Dedup 按外部 ID 去重，保留首次出现的条目，相对顺序不变
func Dedup(items []Item) []Item {
	seen := make(map[int]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ExternalID]; ok {
			continue
		}
		seen[it.ExternalID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// rank 去重后按分数稳定降序并截断
func rank(items []Item, limit int) []Item {
	items = Dedup(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return truncate(items, limit)
}

func truncate(items []Item, limit int) []Item {
	if limit <= 0 {
		return []Item{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
