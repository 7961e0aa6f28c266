package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/metrics"
	"github.com/mmeshcher/linkshortener/internal/models"
	"github.com/mmeshcher/linkshortener/internal/repository"
)

const DefaultMaxAttempts = 10

type CodeGenerator interface {
	Generate() (string, error)
}

// Allocator hands out short codes that are not taken in the store.
type Allocator struct {
	gen         CodeGenerator
	store       LinkStore
	maxAttempts int
	logger      *zap.Logger
}

func NewAllocator(gen CodeGenerator, store LinkStore, maxAttempts int, logger *zap.Logger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		gen:         gen,
		store:       store,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// AllocateCode returns a code that was free when it was checked. Two callers
// may still receive the same code if neither has inserted it yet; use
// InsertUnique when the code is about to be persisted.
func (a *Allocator) AllocateCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code, err := a.gen.Generate()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		_, err = a.store.FindByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}

		a.collision(code, attempt)
	}

	a.logger.Error("Failed to allocate unique short code after max attempts",
		zap.Int("attempts", a.maxAttempts))
	return "", ErrAllocationExhausted
}

// InsertUnique stores rec under a freshly generated code. The store's unique
// constraint decides ownership of a code: a conflicting insert is discarded and
// retried with a new code, any other store error is returned as is.
func (a *Allocator) InsertUnique(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code, err := a.gen.Generate()
		if err != nil {
			return models.LinkRecord{}, fmt.Errorf("generate code: %w", err)
		}

		rec.ShortCode = code
		saved, err := a.store.Insert(ctx, rec)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, repository.ErrCodeConflict) {
			return models.LinkRecord{}, err
		}

		a.collision(code, attempt)
	}

	a.logger.Error("Failed to insert link with unique short code after max attempts",
		zap.String("long_url", rec.LongURL),
		zap.Int("attempts", a.maxAttempts))
	return models.LinkRecord{}, ErrAllocationExhausted
}

func (a *Allocator) collision(code string, attempt int) {
	metrics.CodeCollisions.Inc()
	a.logger.Warn("Short code collision, retrying",
		zap.String("short_code", code),
		zap.Int("attempt", attempt))
}
