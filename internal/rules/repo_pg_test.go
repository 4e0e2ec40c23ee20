package rules

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoLatestReturnsNewestDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"version", "format", "body", "description", "created_at"}).
		AddRow(int64(3), "yaml", "Brass:\n  recommendations:\n    Carbide: {rake: 0 deg}\n", nil, created)
	mock.ExpectQuery("SELECT version, format, body, description, created_at").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	doc, err := repo.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if doc.Version != 3 || doc.Format != FormatYAML {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Description != "" {
		t.Fatalf("expected empty description, got %q", doc.Description)
	}
	if !doc.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at %v", doc.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLatestNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM rule_tables").WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.Latest(context.Background()); err != ErrNotPublished {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
}

func TestPGRepoPublishInsertsValidDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	body := `{"Steel":{"recommendations":{"HSS":{}}}}`
	created := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO rule_tables").
		WithArgs("json", body, "initial import").
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at"}).AddRow(int64(1), created))

	repo := &PGRepo{DB: db}
	doc, err := repo.Publish(context.Background(), Document{Body: []byte(body), Description: "initial import"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if doc.Version != 1 || doc.Format != FormatJSON {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoPublishRejectsMalformedBody(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	if _, err := repo.Publish(context.Background(), Document{Body: []byte(`["not","a","table"]`)}); err == nil {
		t.Fatalf("expected error for malformed body")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}

func TestPGSourceLoadsLatestTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"version", "format", "body", "description", "created_at"}).
		AddRow(int64(7), "json", `{"Steel":{"recommendations":{"Carbide":{}}}}`, "v7", time.Now().UTC())
	mock.ExpectQuery("FROM rule_tables").WillReturnRows(rows)

	table, err := PGSource{Repo: &PGRepo{DB: db}}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := table.Workpiece("Steel"); !ok {
		t.Fatalf("expected Steel in loaded table")
	}
}
