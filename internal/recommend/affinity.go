package recommend

import "sort"

const (
	// 入选类型的分数下限，相对最高分
	topGenreRatio = 0.6
	maxTopGenres  = 3
)

// ComputeAffinities 计算类型偏好：每个类型的分数是带该类型电影的归一化评分均值，
// 按分数降序，同分保持首次出现的顺序
func ComputeAffinities(ratings []RatingRecord) []GenreAffinity {
	type bucket struct {
		name  string
		sum   float64
		count int
	}

	var order []int
	buckets := make(map[int]*bucket)
	for _, r := range ratings {
		weight := r.Value / 10
		for _, g := range r.Genres {
			b, ok := buckets[g.ID]
			if !ok {
				b = &bucket{name: g.Name}
				buckets[g.ID] = b
				order = append(order, g.ID)
			}
			b.sum += weight
			b.count++
		}
	}

	affinities := make([]GenreAffinity, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		affinities = append(affinities, GenreAffinity{
			GenreID:   id,
			GenreName: b.name,
			Score:     b.sum / float64(b.count),
		})
	}
	sort.SliceStable(affinities, func(i, j int) bool {
		return affinities[i].Score > affinities[j].Score
	})
	return affinities
}

// TopGenres 取分数不低于最高分 60% 的类型，最多 3 个，输入需已排序
func TopGenres(affinities []GenreAffinity) []GenreAffinity {
	if len(affinities) == 0 {
		return nil
	}
	threshold := affinities[0].Score * topGenreRatio
	var top []GenreAffinity
	for _, a := range affinities {
		if len(top) == maxTopGenres || a.Score < threshold {
			break
		}
		top = append(top, a)
	}
	return top
}
