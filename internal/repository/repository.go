// Package repository holds the link store backends. Every backend enforces
// short code uniqueness itself and reports a clash as ErrCodeConflict.
package repository

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/mmeshcher/linkshortener/internal/models"
)

var (
	ErrNotFound     = errors.New("link not found")
	ErrCodeConflict = errors.New("short code already exists")
)

func joinColumns() string {
	return strings.Join(linkColumns, ", ")
}

func filterConditions(filter models.LinkFilter) squirrel.Eq {
	where := squirrel.Eq{}
	if filter.ID != nil {
		where["uuid"] = *filter.ID
	}
	if filter.LongURL != nil {
		where["long_url"] = *filter.LongURL
	}
	if filter.ShortCode != nil {
		where["short_code"] = *filter.ShortCode
	}
	if filter.Visits != nil {
		where["visits"] = *filter.Visits
	}
	return where
}
