package service

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/mmeshcher/linkshortener/internal/models"
)

// ParseLinkFilter turns query parameters into an equality filter over the
// stored link fields (_id, long, short, visit). Any other key, a malformed
// value, or conflicting repeated values make the filter match nothing.
func ParseLinkFilter(query map[string][]string) models.LinkFilter {
	var filter models.LinkFilter

	for key, values := range query {
		value, ok := singleValue(values)
		if !ok {
			filter.Unsatisfiable = true
			continue
		}

		switch key {
		case "_id":
			id, err := uuid.Parse(value)
			if err != nil {
				filter.Unsatisfiable = true
				continue
			}
			canonical := id.String()
			filter.ID = &canonical
		case "long":
			filter.LongURL = &value
		case "short":
			filter.ShortCode = &value
		case "visit":
			visits, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				filter.Unsatisfiable = true
				continue
			}
			filter.Visits = &visits
		default:
			filter.Unsatisfiable = true
		}
	}

	return filter
}

func singleValue(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return "", false
		}
	}
	return values[0], true
}
