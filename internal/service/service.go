package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/metrics"
	"github.com/mmeshcher/linkshortener/internal/models"
	"github.com/mmeshcher/linkshortener/internal/repository"
)

var (
	ErrEmptyURL            = errors.New("empty url")
	ErrURLAlreadyExists    = errors.New("url already exist")
	ErrNotFound            = errors.New("short url not found")
	ErrAllocationExhausted = errors.New("failed to generate unique short code")
)

// LinkStore is the durable storage the shortener works against.
type LinkStore interface {
	FindByCode(ctx context.Context, code string) (models.LinkRecord, error)
	FindByLongURL(ctx context.Context, longURL string) (models.LinkRecord, error)
	Insert(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error)
	IncrementVisit(ctx context.Context, code string) (models.LinkRecord, error)
	List(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error)
	Ping(ctx context.Context) error
}

type ShortenerService struct {
	store     LinkStore
	allocator *Allocator
	logger    *zap.Logger
	now       func() time.Time
}

func NewShortenerService(store LinkStore, allocator *Allocator, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		store:     store,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateLink returns the stored link for longURL, creating it first when no
// record with that URL exists. wasExisting reports which of the two happened.
func (s *ShortenerService) CreateLink(ctx context.Context, longURL string) (rec models.LinkRecord, wasExisting bool, err error) {
	if longURL == "" {
		s.logger.Warn("Attempt to create short URL for empty string")
		return models.LinkRecord{}, false, ErrEmptyURL
	}

	existing, err := s.store.FindByLongURL(ctx, longURL)
	if err == nil {
		metrics.LinksReused.Inc()
		return existing, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to look up long URL", zap.String("long_url", longURL), zap.Error(err))
		return models.LinkRecord{}, false, err
	}

	saved, err := s.allocator.InsertUnique(ctx, models.LinkRecord{
		ID:        uuid.NewString(),
		LongURL:   longURL,
		Visits:    0,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to save link", zap.String("long_url", longURL), zap.Error(err))
		return models.LinkRecord{}, false, err
	}

	metrics.LinksCreated.Inc()
	s.logger.Info("Short URL created",
		zap.String("short_code", saved.ShortCode),
		zap.String("long_url", saved.LongURL))

	return saved, false, nil
}

// Resolve returns the long URL behind code and counts the visit. An unknown
// code yields ErrNotFound and touches nothing.
func (s *ShortenerService) Resolve(ctx context.Context, code string) (string, error) {
	rec, err := s.store.IncrementVisit(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Resolutions.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return "", ErrNotFound
		}
		metrics.Resolutions.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to resolve short URL", zap.String("short_code", code), zap.Error(err))
		return "", err
	}

	metrics.Resolutions.WithLabelValues(metrics.OutcomeResolved).Inc()
	return rec.LongURL, nil
}

func (s *ShortenerService) ListLinks(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error) {
	links, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list links", zap.Error(err))
		return nil, err
	}
	return links, nil
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage ping failed: %w", err)
	}
	return nil
}
