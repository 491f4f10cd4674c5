package mapcore

import (
	"math"
	"sort"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
)

// Timeline reveal tuning. The exponent biases the curve towards a slow
// start; the dead zone keeps the map empty until the step has visibly
// begun.
const (
	revealExponent = 0.7
	revealDeadZone = 0.1
)

// RevealCount maps scroll progress in [0,1] to the number of cities shown.
// Progress below the dead zone reveals nothing; progress 1 reveals all.
func RevealCount(progress float64, total int) int {
	if total <= 0 || progress < revealDeadZone {
		return 0
	}
	adjusted := math.Pow(progress, revealExponent)
	count := int(math.Floor(adjusted * float64(total)))
	if count < 0 {
		count = 0
	}
	if count > total {
		count = total
	}
	return count
}

// OrderCities returns cities sorted by their order field, reversed when
// scrolling up so the reveal runs backwards through the itinerary.
func OrderCities(cities []data.City, direction string) []data.City {
	out := make([]data.City, len(cities))
	copy(out, cities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	if direction == "up" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// VisibleCities returns the first RevealCount cities of the ordered list.
func VisibleCities(cities []data.City, progress float64, direction string) []data.City {
	ordered := OrderCities(cities, direction)
	return ordered[:RevealCount(progress, len(ordered))]
}
