package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sydlexius/discresolve/internal/api/middleware"
	"github.com/sydlexius/discresolve/internal/provider"
	"github.com/sydlexius/discresolve/internal/resolve"
)

// Client-facing error messages. Details stay in the logs.
const (
	msgMissingQuery    = "missing query parameter 'q'"
	msgMissingKey      = "search API key not configured"
	msgNoMatch         = "no Discogs match found"
	msgUpstreamFailure = "search provider request failed"
	msgInternal        = "internal error"
)

// ResolveResponse is the body of a successful resolution. Title and
// CoverImage are null when neither the search result nor the catalog
// provided one.
type ResolveResponse struct {
	Query        string         `json:"query"`
	SearchSource resolve.Source `json:"searchSource"`
	PrimaryQuery string         `json:"primaryQuery"`
	CanonicalURL string         `json:"canonicalUrl"`
	Title        *string        `json:"title"`
	CoverImage   *string        `json:"coverImage"`
	Debug        *resolve.Trace `json:"debug"`
}

// NoMatchResponse is returned when every stage came up empty.
type NoMatchResponse struct {
	Query        string         `json:"query"`
	SearchSource resolve.Source `json:"searchSource"`
	PrimaryQuery string         `json:"primaryQuery"`
	Error        string         `json:"error"`
	Debug        *resolve.Trace `json:"debug"`
}

// ErrorResponse is the body of every other failure.
type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// BuildResponse maps a resolution result to a status code and body. It is
// shared by the HTTP handler and the CLI.
func BuildResponse(out *resolve.Outcome, err error) (int, any) {
	if err != nil {
		switch resolve.KindOf(err) {
		case resolve.KindInvalidInput:
			return http.StatusBadRequest, ErrorResponse{Error: msgMissingQuery}
		case resolve.KindMissingCredential:
			return http.StatusInternalServerError, ErrorResponse{Error: msgMissingKey}
		case resolve.KindUpstreamSearch:
			resp := ErrorResponse{Error: msgUpstreamFailure}
			var upErr *provider.ErrUpstreamSearch
			if errors.As(err, &upErr) {
				resp.UpstreamStatus = upErr.Status
			}
			return http.StatusInternalServerError, resp
		default:
			return http.StatusInternalServerError, ErrorResponse{Error: msgInternal}
		}
	}

	if !out.Matched() {
		return http.StatusNotFound, NoMatchResponse{
			Query:        out.Query,
			SearchSource: resolve.SourceNone,
			PrimaryQuery: out.PrimaryQuery,
			Error:        msgNoMatch,
			Debug:        out.Trace,
		}
	}

	return http.StatusOK, ResolveResponse{
		Query:        out.Query,
		SearchSource: out.SearchSource,
		PrimaryQuery: out.PrimaryQuery,
		CanonicalURL: out.CanonicalURL,
		Title:        nullable(out.Title),
		CoverImage:   nullable(out.CoverImage),
		Debug:        out.Trace,
	}
}

// LogResolveError records the diagnostic detail BuildResponse leaves out of
// the client body.
func LogResolveError(ctx context.Context, logger *slog.Logger, err error, attrs ...slog.Attr) {
	kind := resolve.KindOf(err)
	attrs = append(attrs,
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()))

	var stageErr *resolve.StageError
	if errors.As(err, &stageErr) {
		attrs = append(attrs, slog.String("stage", string(stageErr.Stage)))
	}

	switch {
	case errors.Is(err, context.Canceled):
		logger.LogAttrs(ctx, slog.LevelInfo, "resolution abandoned by caller", attrs...)
	case kind == resolve.KindInvalidInput:
		logger.LogAttrs(ctx, slog.LevelDebug, "rejected resolve request", attrs...)
	case kind == resolve.KindUpstreamSearch:
		var upErr *provider.ErrUpstreamSearch
		if errors.As(err, &upErr) {
			attrs = append(attrs,
				slog.Int("upstream_status", upErr.Status),
				slog.String("upstream_body", upErr.Snippet))
		}
		logger.LogAttrs(ctx, slog.LevelError, "search provider failed", attrs...)
	default:
		logger.LogAttrs(ctx, slog.LevelError, "resolution failed", attrs...)
	}
}

func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		query = strings.TrimSpace(q.Get("query"))
	}

	out, err := r.resolver.Resolve(req.Context(), query)
	if err != nil {
		LogResolveError(req.Context(), r.logger, err, slog.String("request_id", middleware.RequestIDFromContext(req.Context())))
	}

	status, body := BuildResponse(out, err)
	writeJSON(w, status, body)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
