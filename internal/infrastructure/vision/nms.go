package vision

import (
	"image"
	"sort"
)

// suppress жадный NMS отдельно для каждого класса.
// Рамки разных классов друг друга не подавляют: очки и маска на одном лице остаются обе.
// Возвращает индексы оставшихся рамок по убыванию уверенности.
func suppress(boxes []image.Rectangle, scores []float32, classes []int, threshold float64) []int {
	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	keep := make([]int, 0, len(order))
	for _, i := range order {
		overlaps := false
		for _, k := range keep {
			if classes[k] == classes[i] && iou(boxes[k], boxes[i]) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			keep = append(keep, i)
		}
	}
	return keep
}

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
