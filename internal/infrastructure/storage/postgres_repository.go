package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

var sourceColumns = []string{"id", "name", "url", "kind", "enabled", "last_fetched", "article_count"}

// PostgresRepository persists sources, events and pending posts into Postgres.
type PostgresRepository struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

var (
	_ ports.SourceRegistry = (*PostgresRepository)(nil)
	_ ports.EventLog       = (*PostgresRepository)(nil)
	_ ports.ArticleStore   = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgres opens a lib/pq pool and checks it answers.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema; every statement is idempotent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SeedSources inserts sources whose URL is unknown and returns how many were added.
func (r *PostgresRepository) SeedSources(ctx context.Context, sources []domain.Source) (int, error) {
	added := 0
	for _, source := range sources {
		query, args, err := r.qb.Insert("news_sources").
			Columns("name", "url", "kind", "enabled").
			Values(source.Name, source.URL, string(source.Kind), source.Enabled).
			Suffix("ON CONFLICT (url) DO NOTHING").
			ToSql()
		if err != nil {
			return added, fmt.Errorf("build seed query: %w", err)
		}

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return added, fmt.Errorf("seed source %s: %w", source.URL, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

func (r *PostgresRepository) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	return r.listSources(ctx, sq.Eq{"enabled": true})
}

func (r *PostgresRepository) ListDisabled(ctx context.Context) ([]domain.Source, error) {
	return r.listSources(ctx, sq.Eq{"enabled": false})
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.Source, error) {
	return r.listSources(ctx, nil)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (domain.Source, error) {
	query, args, err := r.qb.Select(sourceColumns...).From("news_sources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build get query: %w", err)
	}

	source, err := scanSource(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("get source %d: %w", id, err)
	}
	return source, nil
}

func (r *PostgresRepository) RecordFetch(ctx context.Context, id int64, at time.Time, articles int) error {
	return r.updateSource(ctx, id, r.qb.Update("news_sources").
		Set("last_fetched", at).
		Set("article_count", sq.Expr("article_count + ?", articles)))
}

func (r *PostgresRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.updateSource(ctx, id, r.qb.Update("news_sources").Set("enabled", enabled))
}

func (r *PostgresRepository) Append(ctx context.Context, event domain.Event) error {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}

	var sourceID any
	if event.SourceID != 0 {
		sourceID = event.SourceID
	}

	query, args, err := r.qb.Insert("source_events").
		Columns("source_id", "kind", "message", "created_at").
		Values(sourceID, string(event.Kind), event.Message, at).
		ToSql()
	if err != nil {
		return fmt.Errorf("build event insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountErrors(ctx context.Context, sourceID int64, since time.Time) (int, error) {
	query, args, err := r.qb.Select("COUNT(*)").
		From("source_events").
		Where(sq.Eq{"source_id": sourceID}).
		Where(sq.Eq{"kind": fetchErrorKinds()}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count errors for source %d: %w", sourceID, err)
	}
	return count, nil
}

func (r *PostgresRepository) LatestError(ctx context.Context, sourceID int64) (domain.Event, bool, error) {
	query, args, err := r.qb.Select("id", "kind", "message", "created_at").
		From("source_events").
		Where(sq.Eq{"source_id": sourceID}).
		Where(sq.Eq{"kind": fetchErrorKinds()}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("build latest error query: %w", err)
	}

	event := domain.Event{SourceID: sourceID}
	var kind string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&event.ID, &kind, &event.Message, &event.At)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, false, nil
	}
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("latest error for source %d: %w", sourceID, err)
	}
	event.Kind = domain.EventKind(kind)
	return event, true, nil
}

func (r *PostgresRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	query, args, err := r.qb.Select("1").From("posts").Where(sq.Eq{"title": title}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query title: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) CreatePending(ctx context.Context, article domain.StoredArticle) (int64, error) {
	return r.insertPost(ctx, r.db, article)
}

// CreatePendingBatch inserts all articles in one transaction.
func (r *PostgresRepository) CreatePendingBatch(ctx context.Context, articles []domain.StoredArticle) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}

	ids := make([]int64, 0, len(articles))
	for _, article := range articles {
		id, err := r.insertPost(ctx, tx, article)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return ids, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *PostgresRepository) insertPost(ctx context.Context, q queryRower, article domain.StoredArticle) (int64, error) {
	query, args, err := r.qb.Insert("posts").
		Columns("title", "body", "url", "image_url", "source_name", "status").
		Values(article.Title, article.Body, article.URL, article.ImageURL, article.SourceName, string(domain.StatusPending)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build post insert: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert post %q: %w", article.Title, domain.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert post %q: %w", article.Title, err)
	}
	return id, nil
}

func (r *PostgresRepository) listSources(ctx context.Context, where sq.Sqlizer) ([]domain.Source, error) {
	builder := r.qb.Select(sourceColumns...).From("news_sources").OrderBy("id")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return sources, nil
}

func (r *PostgresRepository) updateSource(ctx context.Context, id int64, update sq.UpdateBuilder) error {
	query, args, err := update.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build source update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update source %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (domain.Source, error) {
	var (
		source      domain.Source
		kind        string
		lastFetched sql.NullTime
	)
	if err := row.Scan(&source.ID, &source.Name, &source.URL, &kind, &source.Enabled, &lastFetched, &source.ArticleCount); err != nil {
		return domain.Source{}, err
	}
	source.Kind = domain.SourceKind(kind)
	if lastFetched.Valid {
		source.LastFetched = lastFetched.Time
	}
	return source, nil
}

func fetchErrorKinds() []string {
	kinds := make([]string, 0, len(domain.FetchErrorKinds))
	for _, kind := range domain.FetchErrorKinds {
		kinds = append(kinds, string(kind))
	}
	return kinds
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
