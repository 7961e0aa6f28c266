package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/models"
)

// MemoryRepository keeps links in process memory. When storagePath is set the
// whole set is loaded from that JSON file on start and rewritten on every
// mutation; a mutation becomes visible only once the file is written.
type MemoryRepository struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	byCode  map[string]models.LinkRecord
	order   []string
	path    string
	logger  *zap.Logger
}

func NewMemoryRepository(storagePath string, logger *zap.Logger) (*MemoryRepository, error) {
	r := &MemoryRepository{
		byCode: make(map[string]models.LinkRecord),
		path:   storagePath,
		logger: logger,
	}

	if storagePath != "" {
		if err := r.loadFromFile(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *MemoryRepository) FindByCode(ctx context.Context, code string) (models.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.LinkRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byCode[code]
	if !ok {
		return models.LinkRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) FindByLongURL(ctx context.Context, longURL string) (models.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.LinkRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, code := range r.order {
		if rec := r.byCode[code]; rec.LongURL == longURL {
			return rec, nil
		}
	}
	return models.LinkRecord{}, ErrNotFound
}

func (r *MemoryRepository) Insert(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.LinkRecord{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	_, exists := r.byCode[rec.ShortCode]
	r.mu.RUnlock()
	if exists {
		return models.LinkRecord{}, ErrCodeConflict
	}

	if err := r.saveToFile(&rec); err != nil {
		return models.LinkRecord{}, err
	}

	r.mu.Lock()
	r.byCode[rec.ShortCode] = rec
	r.order = append(r.order, rec.ShortCode)
	r.mu.Unlock()

	return rec, nil
}

func (r *MemoryRepository) IncrementVisit(ctx context.Context, code string) (models.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.LinkRecord{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	rec, ok := r.byCode[code]
	r.mu.RUnlock()
	if !ok {
		return models.LinkRecord{}, ErrNotFound
	}
	rec.Visits++

	if err := r.saveToFile(&rec); err != nil {
		return models.LinkRecord{}, err
	}

	r.mu.Lock()
	r.byCode[code] = rec
	r.mu.Unlock()

	return rec, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]models.LinkRecord, 0)
	if filter.Unsatisfiable {
		return result, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, code := range r.order {
		if rec := r.byCode[code]; filter.Match(rec) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.saveToFile(nil)
}

// saveToFile writes the current set with pending applied on top of it.
// Callers hold writeMu and commit pending to memory only after it succeeds.
func (r *MemoryRepository) saveToFile(pending *models.LinkRecord) error {
	if r.path == "" {
		return nil
	}

	r.mu.RLock()
	rows := make([]models.Storage, 0, len(r.order)+1)
	applied := false
	for _, code := range r.order {
		rec := r.byCode[code]
		if pending != nil && code == pending.ShortCode {
			rec = *pending
			applied = true
		}
		rows = append(rows, models.StorageFromRecord(rec))
	}
	r.mu.RUnlock()

	if pending != nil && !applied {
		rows = append(rows, models.StorageFromRecord(*pending))
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}

	return nil
}

func (r *MemoryRepository) loadFromFile() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read storage file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var rows []models.Storage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse storage file: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if _, exists := r.byCode[row.ShortCode]; exists {
			r.logger.Warn("Duplicate short code in storage file, keeping first",
				zap.String("short_code", row.ShortCode))
			continue
		}
		r.byCode[row.ShortCode] = row.Record()
		r.order = append(r.order, row.ShortCode)
	}

	r.logger.Info("Links loaded from storage file",
		zap.String("path", r.path),
		zap.Int("count", len(r.order)))

	return nil
}
