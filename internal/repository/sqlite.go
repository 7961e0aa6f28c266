package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmeshcher/linkshortener/internal/models"
)

// SQLiteRepository stores links in a local SQLite file or, for libsql:// and
// wss:// URLs, in a remote libSQL database.
type SQLiteRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func NewSQLiteRepository(dbURL string, logger *zap.Logger) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driverName == "sqlite" {
		// single writer, concurrent statements would fail with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	if err := applyMigrations(sqliteMigrations, "migrations/sqlite", "sqlite", driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	logger.Info("SQLite repository initialized successfully", zap.String("driver", driverName))

	return &SQLiteRepository{db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}, nil
}

func (s *SQLiteRepository) FindByCode(ctx context.Context, code string) (models.LinkRecord, error) {
	return s.findOne(ctx, squirrel.Eq{"short_code": code})
}

func (s *SQLiteRepository) FindByLongURL(ctx context.Context, longURL string) (models.LinkRecord, error) {
	return s.findOne(ctx, squirrel.Eq{"long_url": longURL})
}

func (s *SQLiteRepository) findOne(ctx context.Context, where squirrel.Eq) (models.LinkRecord, error) {
	query, args, err := s.sb.
		Select(linkColumns...).
		From(linksTable).
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanSQLiteRow(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LinkRecord{}, ErrNotFound
		}
		return models.LinkRecord{}, fmt.Errorf("query row: %w", err)
	}

	return row.Record(), nil
}

func (s *SQLiteRepository) Insert(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error) {
	query, args, err := s.sb.
		Insert(linksTable).
		Columns(linkColumns...).
		Values(rec.ID, rec.LongURL, rec.ShortCode, rec.Visits, rec.CreatedAt.UnixNano()).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanSQLiteRow(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isShortCodeConflict(err) {
			return models.LinkRecord{}, ErrCodeConflict
		}
		return models.LinkRecord{}, fmt.Errorf("insert link: %w", err)
	}

	return row.Record(), nil
}

func (s *SQLiteRepository) IncrementVisit(ctx context.Context, code string) (models.LinkRecord, error) {
	query, args, err := s.sb.
		Update(linksTable).
		Set("visits", squirrel.Expr("visits + 1")).
		Where(squirrel.Eq{"short_code": code}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanSQLiteRow(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LinkRecord{}, ErrNotFound
		}
		return models.LinkRecord{}, fmt.Errorf("increment visits: %w", err)
	}

	return row.Record(), nil
}

func (s *SQLiteRepository) List(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error) {
	result := make([]models.LinkRecord, 0)
	if filter.Unsatisfiable {
		return result, nil
	}

	query, args, err := s.sb.
		Select(linkColumns...).
		From(linksTable).
		Where(filterConditions(filter)).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result = append(result, row.Record())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (s *SQLiteRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(row rowScanner) (models.Storage, error) {
	var (
		st        models.Storage
		createdAt int64
	)
	if err := row.Scan(&st.UUID, &st.LongURL, &st.ShortCode, &st.Visits, &createdAt); err != nil {
		return models.Storage{}, err
	}
	st.CreatedAt = time.Unix(0, createdAt).UTC()
	return st, nil
}

func isShortCodeConflict(err error) bool {
	if !strings.Contains(err.Error(), "short_code") {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	// libSQL reports constraint failures as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
