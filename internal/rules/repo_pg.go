package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotPublished is returned when the rule_tables table holds no documents.
var ErrNotPublished = errors.New("no rule table published")

// Document is one published version of a rule table.
type Document struct {
	Version     int64
	Format      Format
	Body        []byte
	Description string
	CreatedAt   time.Time
}

// PGRepo stores rule-table documents in Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Latest returns the highest published version.
func (r *PGRepo) Latest(ctx context.Context) (Document, error) {
	const query = `
SELECT version, format, body, description, created_at
FROM rule_tables
ORDER BY version DESC
LIMIT 1`
	var doc Document
	var format string
	var body string
	var description sql.NullString
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&doc.Version,
		&format,
		&body,
		&description,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotPublished
		}
		return Document{}, err
	}
	parsed, err := ParseFormat(format)
	if err != nil {
		return Document{}, err
	}
	if parsed == "" {
		parsed = FormatJSON
	}
	doc.Format = parsed
	doc.Body = []byte(body)
	if description.Valid {
		doc.Description = description.String
	}
	return doc, nil
}

// Publish validates and stores a new version, returning it with its assigned version number.
func (r *PGRepo) Publish(ctx context.Context, doc Document) (Document, error) {
	if doc.Format == "" {
		doc.Format = FormatJSON
	}
	if _, err := Parse(doc.Body, doc.Format); err != nil {
		return Document{}, err
	}
	const query = `
INSERT INTO rule_tables (format, body, description, created_at)
VALUES ($1, $2, $3, now())
RETURNING version, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		string(doc.Format),
		string(doc.Body),
		nullableString(doc.Description),
	).Scan(&doc.Version, &doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert rule table: %w", err)
	}
	return doc, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// PGSource loads the latest published rule table from Postgres.
type PGSource struct {
	Repo *PGRepo
}

func (s PGSource) Load(ctx context.Context) (*Table, error) {
	if s.Repo == nil || s.Repo.DB == nil {
		return nil, fmt.Errorf("postgres rule source not configured")
	}
	doc, err := s.Repo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule table: %w", err)
	}
	table, err := Parse(doc.Body, doc.Format)
	if err != nil {
		return nil, fmt.Errorf("parse rule table v%d: %w", doc.Version, err)
	}
	return table, nil
}

func (s PGSource) Describe() string { return "postgres:rule_tables" }
