package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/models"
)

const (
	linksTable         = "links"
	shortCodeUniqueKey = "links_short_code_key"
)

var linkColumns = []string{"uuid", "long_url", "short_code", "visits", "created_at"}

type PostgresRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func NewPostgresRepository(dsn string, logger *zap.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runPostgresMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL repository initialized successfully")

	return &PostgresRepository{pool: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}, nil
}

func runPostgresMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	return applyMigrations(postgresMigrations, "migrations/postgres", "postgres", driver)
}

func (p *PostgresRepository) FindByCode(ctx context.Context, code string) (models.LinkRecord, error) {
	return p.findOne(ctx, squirrel.Eq{"short_code": code})
}

func (p *PostgresRepository) FindByLongURL(ctx context.Context, longURL string) (models.LinkRecord, error) {
	return p.findOne(ctx, squirrel.Eq{"long_url": longURL})
}

func (p *PostgresRepository) findOne(ctx context.Context, where squirrel.Eq) (models.LinkRecord, error) {
	query, args, err := p.sb.
		Select(linkColumns...).
		From(linksTable).
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanPgRow(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LinkRecord{}, ErrNotFound
		}
		return models.LinkRecord{}, fmt.Errorf("query row: %w", err)
	}

	return row.Record(), nil
}

func (p *PostgresRepository) Insert(ctx context.Context, rec models.LinkRecord) (models.LinkRecord, error) {
	query, args, err := p.sb.
		Insert(linksTable).
		Columns(linkColumns...).
		Values(rec.ID, rec.LongURL, rec.ShortCode, rec.Visits, rec.CreatedAt).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanPgRow(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation &&
			pgErr.ConstraintName == shortCodeUniqueKey {
			return models.LinkRecord{}, ErrCodeConflict
		}
		return models.LinkRecord{}, fmt.Errorf("insert link: %w", err)
	}

	return row.Record(), nil
}

func (p *PostgresRepository) IncrementVisit(ctx context.Context, code string) (models.LinkRecord, error) {
	query, args, err := p.sb.
		Update(linksTable).
		Set("visits", squirrel.Expr("visits + 1")).
		Where(squirrel.Eq{"short_code": code}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return models.LinkRecord{}, fmt.Errorf("build query: %w", err)
	}

	row, err := scanPgRow(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LinkRecord{}, ErrNotFound
		}
		return models.LinkRecord{}, fmt.Errorf("increment visits: %w", err)
	}

	return row.Record(), nil
}

func (p *PostgresRepository) List(ctx context.Context, filter models.LinkFilter) ([]models.LinkRecord, error) {
	result := make([]models.LinkRecord, 0)
	if filter.Unsatisfiable {
		return result, nil
	}

	query, args, err := p.sb.
		Select(linkColumns...).
		From(linksTable).
		Where(filterConditions(filter)).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanPgRow(rows)
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

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}

func scanPgRow(row pgx.Row) (models.Storage, error) {
	var s models.Storage
	err := row.Scan(&s.UUID, &s.LongURL, &s.ShortCode, &s.Visits, &s.CreatedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, err
}
