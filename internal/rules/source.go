package rules

import (
	"context"
	"fmt"
	"io"
	"os"

	"tool-advisor/internal/shared/storage/object"
)

// Source loads a rule table once at startup.
type Source interface {
	Load(ctx context.Context) (*Table, error)
	Describe() string
}

// FileSource reads a rule table from the local filesystem.
type FileSource struct {
	Path   string
	Format Format
}

func (s FileSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	table, err := Parse(data, s.format())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return table, nil
}

func (s FileSource) Describe() string { return "file:" + s.Path }

func (s FileSource) format() Format {
	if s.Format != "" {
		return s.Format
	}
	return FormatFromPath(s.Path)
}

// ObjectSource reads a rule table from an object store key.
type ObjectSource struct {
	Store  object.ObjectStore
	Key    string
	Format Format
	Name   string
}

func (s ObjectSource) Load(ctx context.Context) (*Table, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("object store not configured")
	}
	rc, err := s.Store.Open(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("open rules object: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read rules object: %w", err)
	}
	format := s.Format
	if format == "" {
		format = FormatFromPath(s.Key)
	}
	table, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Key, err)
	}
	return table, nil
}

func (s ObjectSource) Describe() string {
	name := s.Name
	if name == "" {
		name = "object"
	}
	return name + ":" + s.Key
}
