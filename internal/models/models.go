package models

import "time"

type CreateLinkRequest struct {
	Long string `json:"long"`
}

// LinkRecord is the persisted mapping between a short code and its long URL.
type LinkRecord struct {
	ID        string
	LongURL   string
	ShortCode string
	Visits    int64
	CreatedAt time.Time
}

type CreatedDate struct {
	Date  int `json:"date"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

type LinkResponse struct {
	ID        string        `json:"_id"`
	Long      string        `json:"long"`
	Short     string        `json:"short"`
	Visit     int64         `json:"visit"`
	CreatedAt []CreatedDate `json:"createdAt"`
}

func NewLinkResponse(rec LinkRecord) LinkResponse {
	created := rec.CreatedAt.UTC()
	return LinkResponse{
		ID:    rec.ID,
		Long:  rec.LongURL,
		Short: rec.ShortCode,
		Visit: rec.Visits,
		CreatedAt: []CreatedDate{{
			Date:  created.Day(),
			Month: int(created.Month()),
			Year:  created.Year(),
		}},
	}
}

// LinkFilter holds equality constraints for listing. Nil fields are unconstrained.
// Unsatisfiable marks a filter that references a field that is not stored or
// carries a value of the wrong type; it matches no record.
type LinkFilter struct {
	ID            *string
	LongURL       *string
	ShortCode     *string
	Visits        *int64
	Unsatisfiable bool
}

func (f LinkFilter) Match(rec LinkRecord) bool {
	if f.Unsatisfiable {
		return false
	}
	if f.ID != nil && *f.ID != rec.ID {
		return false
	}
	if f.LongURL != nil && *f.LongURL != rec.LongURL {
		return false
	}
	if f.ShortCode != nil && *f.ShortCode != rec.ShortCode {
		return false
	}
	if f.Visits != nil && *f.Visits != rec.Visits {
		return false
	}
	return true
}

// Storage is the row shape shared by the SQL backends and the file snapshot.
type Storage struct {
	UUID      string    `db:"uuid" json:"uuid"`
	LongURL   string    `db:"long_url" json:"long_url"`
	ShortCode string    `db:"short_code" json:"short_code"`
	Visits    int64     `db:"visits" json:"visits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (s Storage) Record() LinkRecord {
	return LinkRecord{
		ID:        s.UUID,
		LongURL:   s.LongURL,
		ShortCode: s.ShortCode,
		Visits:    s.Visits,
		CreatedAt: s.CreatedAt,
	}
}

func StorageFromRecord(rec LinkRecord) Storage {
	return Storage{
		UUID:      rec.ID,
		LongURL:   rec.LongURL,
		ShortCode: rec.ShortCode,
		Visits:    rec.Visits,
		CreatedAt: rec.CreatedAt,
	}
}
