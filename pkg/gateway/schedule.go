package gateway

import (
	"strings"

	"github.com/orderbridge/colissimo/pkg/colissimo"
)

// Closed-day sentinel used by the withdrawal service.
const (
	closedFrom = "000:00"
	closedTo   = "00:00"
)

// parseOpeningHours normalizes the free-text weekly opening hours of a
// pickup point. Each present weekday field holds space-separated
// "HH:MM-HH:MM" ranges; the closed-day sentinel is dropped rather than
// recorded. Weekdays absent from the record contribute no entry.
func parseOpeningHours(point *colissimo.PickupPoint) []OpeningHours {
	var schedule []OpeningHours

	for day := 1; day <= 7; day++ {
		raw, ok := point.OpeningHours(day)
		if !ok {
			continue
		}

		opening := OpeningHours{Day: day}

		for _, r := range strings.Fields(raw) {
			bounds := strings.SplitN(r, "-", 2)
			if len(bounds) != 2 {
				continue
			}

			from, to := bounds[0], bounds[1]
			if from == closedFrom || to == closedTo {
				continue
			}

			opening.Ranges = append(opening.Ranges, TimeRange{From: from, To: to})
		}

		schedule = append(schedule, opening)
	}

	return schedule
}
