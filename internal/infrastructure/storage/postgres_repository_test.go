package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"NewsFetcher/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresRepository(db), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListEnabled(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	fetched := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, url, kind, enabled, last_fetched, article_count FROM news_sources WHERE enabled = \$1 ORDER BY id`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(sourceColumns).
			AddRow(1, "Freight Wire", "https://freight.example/rss", "feed", true, fetched, 12).
			AddRow(2, "Dock Daily", "https://dock.example/news", "page", true, nil, 0))

	sources, err := repo.ListEnabled(context.Background())
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Kind != domain.KindFeed || !sources[0].LastFetched.Equal(fetched) || sources[0].ArticleCount != 12 {
		t.Fatalf("unexpected first source: %+v", sources[0])
	}
	if !sources[1].LastFetched.IsZero() {
		t.Fatalf("NULL last_fetched should map to zero time, got %v", sources[1].LastFetched)
	}

	expectationsMet(t, mock)
}

func TestPostgresGetMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .+ FROM news_sources WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(sourceColumns))

	if _, err := repo.Get(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresRecordFetch(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE news_sources SET last_fetched = \$1, article_count = article_count \+ \$2 WHERE id = \$3`).
		WithArgs(at, 3, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE news_sources SET enabled = \$1 WHERE id = \$2`).
		WithArgs(false, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.RecordFetch(context.Background(), 1, at, 3); err != nil {
		t.Fatalf("RecordFetch: %v", err)
	}
	if err := repo.SetEnabled(context.Background(), 9, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown source, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestPostgresAppendUnscopedEvent(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO source_events \(source_id,kind,message,created_at\) VALUES \(\$1,\$2,\$3,\$4\)`).
		WithArgs(nil, "store_error", "could not save", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), domain.Event{Kind: domain.EventStoreError, Message: "could not save", At: at})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresErrorQueries(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	since := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)

	args := []driver.Value{int64(5)}
	for _, kind := range fetchErrorKinds() {
		args = append(args, kind)
	}
	countArgs := append(append([]driver.Value{}, args...), since)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM source_events WHERE source_id = \$1 AND kind IN \(.+\) AND created_at >= \$8`).
		WithArgs(countArgs...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	mock.ExpectQuery(`SELECT id, kind, message, created_at FROM source_events WHERE source_id = \$1 AND kind IN .+ ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "message", "created_at"}).
			AddRow(77, "access_denied", "HTTP 403", since))

	count, err := repo.CountErrors(context.Background(), 5, since)
	if err != nil || count != 10 {
		t.Fatalf("CountErrors = %d, %v", count, err)
	}

	latest, ok, err := repo.LatestError(context.Background(), 5)
	if err != nil || !ok {
		t.Fatalf("LatestError: ok=%v err=%v", ok, err)
	}
	if latest.Kind != domain.EventAccessDenied || latest.SourceID != 5 || latest.ID != 77 {
		t.Fatalf("unexpected latest error: %+v", latest)
	}

	expectationsMet(t, mock)
}

func TestPostgresLatestErrorNone(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT id, kind, message, created_at FROM source_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "message", "created_at"}))

	_, ok, err := repo.LatestError(context.Background(), 5)
	if err != nil || ok {
		t.Fatalf("expected no latest error, got ok=%v err=%v", ok, err)
	}
	expectationsMet(t, mock)
}

func TestPostgresExistsByTitle(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT 1 FROM posts WHERE title = \$1 LIMIT 1`).
		WithArgs("Trucking rates climb").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM posts WHERE title = \$1 LIMIT 1`).
		WithArgs("Unknown").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	if ok, err := repo.ExistsByTitle(context.Background(), "Trucking rates climb"); err != nil || !ok {
		t.Fatalf("expected existing title, got %v %v", ok, err)
	}
	if ok, err := repo.ExistsByTitle(context.Background(), "Unknown"); err != nil || ok {
		t.Fatalf("expected missing title, got %v %v", ok, err)
	}
	expectationsMet(t, mock)
}

func TestPostgresCreatePendingBatch(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	insert := `INSERT INTO posts \(title,body,url,image_url,source_name,status\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\) RETURNING id`

	mock.ExpectBegin()
	mock.ExpectQuery(insert).
		WithArgs("A", "body a", "https://x/a", "", "Freight Wire", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(insert).
		WithArgs("B", "body b", "https://x/b", "", "Freight Wire", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	ids, err := repo.CreatePendingBatch(context.Background(), []domain.StoredArticle{
		{Title: "A", Body: "body a", URL: "https://x/a", SourceName: "Freight Wire"},
		{Title: "B", Body: "body b", URL: "https://x/b", SourceName: "Freight Wire"},
	})
	if err != nil {
		t.Fatalf("CreatePendingBatch: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	expectationsMet(t, mock)
}

func TestPostgresCreatePendingBatchRollsBackOnDuplicate(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO posts`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := repo.CreatePendingBatch(context.Background(), []domain.StoredArticle{{Title: "A"}, {Title: "A"}})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresSeedSources(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO news_sources \(name,url,kind,enabled\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(url\) DO NOTHING`).
		WithArgs("Freight Wire", "https://freight.example/rss", "feed", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO news_sources`).
		WithArgs("Dock Daily", "https://dock.example/news", "page", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := repo.SeedSources(context.Background(), []domain.Source{
		{Name: "Freight Wire", URL: "https://freight.example/rss", Kind: domain.KindFeed, Enabled: true},
		{Name: "Dock Daily", URL: "https://dock.example/news", Kind: domain.KindPage, Enabled: true},
	})
	if err != nil || added != 1 {
		t.Fatalf("SeedSources = %d, %v", added, err)
	}
	expectationsMet(t, mock)
}
