package recommend

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWorkpiece = errors.New("invalid workpiece material")
	ErrUnknownTool      = errors.New("no recommendation for tool")
	ErrNoRecommendation = errors.New("no recommendation available")
)

const (
	ErrorCodeInvalidWorkpiece = "invalid_workpiece"
	ErrorCodeUnknownTool      = "unknown_tool"
	ErrorCodeNoRecommendation = "no_recommendation"
	ErrorCodeValidation       = "validation_error"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeInternal         = "internal_error"
)

// ResolveError is a caller-input failure. Kind is one of the Err* sentinels.
type ResolveError struct {
	Kind    error
	Message string
}

func (e *ResolveError) Error() string { return e.Message }

func (e *ResolveError) Unwrap() error { return e.Kind }

func invalidWorkpiece() error {
	return &ResolveError{Kind: ErrInvalidWorkpiece, Message: "invalid workpiece material"}
}

func unknownTool(tool, workpiece string) error {
	return &ResolveError{
		Kind:    ErrUnknownTool,
		Message: fmt.Sprintf("no recommendation for tool %q on workpiece %q", tool, workpiece),
	}
}

func noRecommendation(workpiece string) error {
	return &ResolveError{
		Kind:    ErrNoRecommendation,
		Message: fmt.Sprintf("no recommendation available for workpiece %q", workpiece),
	}
}

// ErrorCode maps a resolve failure to its API error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidWorkpiece):
		return ErrorCodeInvalidWorkpiece
	case errors.Is(err, ErrUnknownTool):
		return ErrorCodeUnknownTool
	case errors.Is(err, ErrNoRecommendation):
		return ErrorCodeNoRecommendation
	default:
		return ErrorCodeInternal
	}
}
