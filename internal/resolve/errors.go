package resolve

import (
	"errors"
	"fmt"

	"github.com/sydlexius/discresolve/internal/provider"
)

// Sentinel errors returned before any network call is made.
var (
	ErrInvalidInput      = errors.New("query is required")
	ErrMissingCredential = errors.New("search provider credential not configured")
)

// ErrorKind classifies a resolution error for the boundary layer.
type ErrorKind int

// Error kinds.
const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindMissingCredential
	KindUpstreamSearch
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindMissingCredential:
		return "missing_credential"
	case KindUpstreamSearch:
		return "upstream_search"
	default:
		return "internal"
	}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	var upErr *provider.ErrUpstreamSearch
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.As(err, &upErr):
		return KindUpstreamSearch
	default:
		return KindInternal
	}
}

// StageError is a fatal failure of a search stage. It carries the trace
// recorded up to and including the failed stage.
type StageError struct {
	Stage Stage
	Trace *Trace
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s search: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
