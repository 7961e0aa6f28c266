package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/linkshortener/internal/models"
)

type linkStore interface {
	FindByCode(ctx context.Context, code string) (models.LinkRecord, error)
	FindByLongURL(ctx context.Context, longURL string) (models.LinkRecord, error)
	Insert(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error)
	IncrementVisit(ctx context.Context, code string) (models.LinkRecord, error)
	List(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

var baseTime = time.Date(2024, time.March, 7, 10, 30, 0, 0, time.UTC)

func newRecord(code, longURL string, offset time.Duration) models.LinkRecord {
	return models.LinkRecord{
		ID:        uuid.NewString(),
		LongURL:   longURL,
		ShortCode: code,
		CreatedAt: baseTime.Add(offset),
	}
}

func ptr[T any](v T) *T {
	return &v
}

// runStoreContract checks the behavior every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) linkStore) {
	t.Run("insert and find", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rec := newRecord("Ab3Xy", "https://example.com/a", 0)
		saved, err := store.Insert(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, rec.ShortCode, saved.ShortCode)
		assert.Equal(t, int64(0), saved.Visits)
		assert.True(t, rec.CreatedAt.Equal(saved.CreatedAt))

		byCode, err := store.FindByCode(ctx, "Ab3Xy")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, byCode.ID)
		assert.Equal(t, "https://example.com/a", byCode.LongURL)

		byURL, err := store.FindByLongURL(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "Ab3Xy", byURL.ShortCode)
	})

	t.Run("missing records", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.FindByCode(ctx, "zzzzz")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.FindByLongURL(ctx, "https://nowhere.example")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.IncrementVisit(ctx, "zzzzz")
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := store.List(ctx, models.LinkFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("Ab3Xy", "https://example.com/a", 0))
		require.NoError(t, err)

		_, err = store.Insert(ctx, newRecord("Ab3Xy", "https://example.com/b", time.Second))
		assert.ErrorIs(t, err, ErrCodeConflict)

		kept, err := store.FindByCode(ctx, "Ab3Xy")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a", kept.LongURL)
	})

	t.Run("same long url under two codes is allowed", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("first", "https://example.com/a", 0))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("secnd", "https://example.com/a", time.Second))
		require.NoError(t, err)

		oldest, err := store.FindByLongURL(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "first", oldest.ShortCode)
	})

	t.Run("increment visit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("Ab3Xy", "https://example.com/a", 0))
		require.NoError(t, err)

		updated, err := store.IncrementVisit(ctx, "Ab3Xy")
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.Visits)
		assert.Equal(t, "https://example.com/a", updated.LongURL)

		updated, err = store.IncrementVisit(ctx, "Ab3Xy")
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Visits)
	})

	t.Run("concurrent increments are all applied", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("Ab3Xy", "https://example.com/a", 0))
		require.NoError(t, err)

		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.IncrementVisit(ctx, "Ab3Xy")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		rec, err := store.FindByCode(ctx, "Ab3Xy")
		require.NoError(t, err)
		assert.Equal(t, int64(n), rec.Visits)
	})

	t.Run("list by filter", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
			_, err := store.Insert(ctx, newRecord(fmt.Sprintf("code%d", i), u, time.Duration(i)*time.Second))
			require.NoError(t, err)
		}
		_, err := store.IncrementVisit(ctx, "code1")
		require.NoError(t, err)

		type want struct {
			codes []string
		}

		tests := []struct {
			name   string
			filter models.LinkFilter
			want   want
		}{
			{
				name:   "empty filter returns everything in creation order",
				filter: models.LinkFilter{},
				want:   want{codes: []string{"code0", "code1", "code2"}},
			},
			{
				name:   "by long url",
				filter: models.LinkFilter{LongURL: ptr("https://c.example")},
				want:   want{codes: []string{"code2"}},
			},
			{
				name:   "by short code",
				filter: models.LinkFilter{ShortCode: ptr("code0")},
				want:   want{codes: []string{"code0"}},
			},
			{
				name:   "by visits",
				filter: models.LinkFilter{Visits: ptr(int64(0))},
				want:   want{codes: []string{"code0", "code2"}},
			},
			{
				name:   "combined fields",
				filter: models.LinkFilter{ShortCode: ptr("code1"), Visits: ptr(int64(1))},
				want:   want{codes: []string{"code1"}},
			},
			{
				name:   "no match",
				filter: models.LinkFilter{ShortCode: ptr("code1"), Visits: ptr(int64(7))},
				want:   want{codes: []string{}},
			},
			{
				name:   "unsatisfiable",
				filter: models.LinkFilter{Unsatisfiable: true},
				want:   want{codes: []string{}},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := store.List(ctx, tt.filter)
				require.NoError(t, err)
				require.NotNil(t, got)

				codes := make([]string, 0, len(got))
				for _, rec := range got {
					codes = append(codes, rec.ShortCode)
				}
				assert.Equal(t, tt.want.codes, codes)
			})
		}
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}
