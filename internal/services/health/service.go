package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// RulesInfo is the view of the loaded rule table the health report needs.
type RulesInfo interface {
	WorkpieceCount() int
	Checksum() string
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	Source string
	Rules  RulesInfo
	DB     Pinger
}

// RulesReport describes the rule table being served.
type RulesReport struct {
	Source     string `json:"source"`
	Workpieces int    `json:"workpieces"`
	Checksum   string `json:"checksum,omitempty"`
}

// Report is the health payload.
type Report struct {
	OK       bool         `json:"ok"`
	Rules    *RulesReport `json:"rules,omitempty"`
	Database string       `json:"database,omitempty"`
}

// NewService constructs a new health service.
func NewService(source string, rules RulesInfo, db Pinger) *Service {
	return &Service{Source: source, Rules: rules, DB: db}
}

// Status reports whether the service can answer queries. The rule table is
// immutable once loaded, so only the database connection can degrade.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if s == nil {
		return report
	}
	if s.Rules != nil {
		report.Rules = &RulesReport{
			Source:     s.Source,
			Workpieces: s.Rules.WorkpieceCount(),
			Checksum:   s.Rules.Checksum(),
		}
	}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			report.OK = false
			report.Database = "unreachable"
		} else {
			report.Database = "ok"
		}
	}
	return report
}
