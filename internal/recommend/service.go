package recommend

import (
	"context"
	"errors"
	"time"

	"tool-advisor/internal/rules"
	"tool-advisor/internal/shared/metrics"
)

var ErrWorkpieceNotFound = errors.New("workpiece not found")

// Service answers recommendation queries against a rule table loaded at startup.
type Service struct {
	Table  *rules.Table
	Source string
}

func NewService(table *rules.Table, source string) *Service {
	metrics.SetRulesWorkpieces(table.Len())
	return &Service{Table: table, Source: source}
}

// Recommend resolves req and records the outcome.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	result, err := Resolve(s.Table, req)
	metrics.ObserveRecommendDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.IncRecommend(ErrorCode(err))
		return Result{}, err
	}
	metrics.IncRecommend("ok")
	return result, nil
}

// Options lists the choices a caller can offer its users.
func (s *Service) Options() rules.Options {
	return s.Table.Options()
}

// Workpiece returns the full rule entry for name.
func (s *Service) Workpiece(name string) (*rules.Workpiece, error) {
	wp, ok := s.Table.Workpiece(name)
	if !ok {
		return nil, ErrWorkpieceNotFound
	}
	return wp, nil
}

// WorkpieceCount reports how many workpieces the loaded table holds.
func (s *Service) WorkpieceCount() int {
	return s.Table.Len()
}

// Checksum identifies the loaded rule table.
func (s *Service) Checksum() string {
	return s.Table.Checksum()
}
