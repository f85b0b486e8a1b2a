package catalog

import "strings"

// SearchField selects which part of an event a query is matched against.
type SearchField string

const (
	FieldAll      SearchField = "all"
	FieldName     SearchField = "name"
	FieldLocation SearchField = "location"
	FieldRewards  SearchField = "rewards"
)

// Search filters events by a case-insensitive substring query over the
// selected field. An empty query returns the input unchanged.
func Search(events []Event, query string, field SearchField) []Event {
	if query == "" {
		return events
	}
	q := strings.ToLower(query)

	var out []Event
	for _, ev := range events {
		if matches(ev, q, field) {
			out = append(out, ev)
		}
	}
	return out
}

func matches(ev Event, q string, field SearchField) bool {
	switch field {
	case FieldName:
		return strings.Contains(strings.ToLower(ev.Name), q)
	case FieldLocation:
		return strings.Contains(strings.ToLower(ev.Location), q)
	case FieldRewards:
		return rewardsMatch(ev, q)
	default:
		return strings.Contains(strings.ToLower(ev.Name), q) ||
			strings.Contains(strings.ToLower(ev.Location), q) ||
			rewardsMatch(ev, q) ||
			strings.Contains(strings.ToLower(ev.Description), q)
	}
}

func rewardsMatch(ev Event, q string) bool {
	for _, reward := range ev.Rewards {
		if strings.Contains(strings.ToLower(reward), q) {
			return true
		}
	}
	return false
}
