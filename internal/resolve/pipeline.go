package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/discresolve/internal/provider"
)

// Source names the stage that produced the final match.
type Source string

// Possible outcome sources. SourceNone means no stage found a catalog match.
const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceHint     Source = "hint"
	SourceNone     Source = "none"
)

// Searcher runs one web search. Implemented by the provider adapters.
type Searcher interface {
	Search(ctx context.Context, query string) (*provider.SearchResponse, error)
}

// CatalogClient fetches metadata for a canonical catalog URL. It returns nil
// when the URL is not a catalog record or the fetch fails.
type CatalogClient interface {
	FetchMetadata(ctx context.Context, canonicalURL string) *provider.CatalogEntry
}

// Outcome is the result of one resolution run.
type Outcome struct {
	Query        string
	SearchSource Source
	PrimaryQuery string
	CanonicalURL string
	Title        string
	CoverImage   string
	Trace        *Trace
}

// Matched reports whether a catalog record was found.
func (o *Outcome) Matched() bool {
	return o != nil && o.SearchSource != SourceNone && o.CanonicalURL != ""
}

// Resolver runs the progressive resolution pipeline. It holds no per-run
// state and is safe for concurrent use.
type Resolver struct {
	searcher Searcher
	catalog  CatalogClient
	selector *Selector
	metrics  *Metrics
	logger   *slog.Logger
}

// NewResolver creates a Resolver. catalog may be nil to skip enrichment;
// a nil selector targets discogs.com.
func NewResolver(searcher Searcher, catalog CatalogClient, selector *Selector, logger *slog.Logger) *Resolver {
	if selector == nil {
		selector = NewSelector(DefaultDomain, DefaultName)
	}
	return &Resolver{
		searcher: searcher,
		catalog:  catalog,
		selector: selector,
		logger:   logger.With(slog.String("component", "resolver")),
	}
}

// SetMetrics attaches Prometheus collectors to the resolver.
func (r *Resolver) SetMetrics(m *Metrics) {
	r.metrics = m
}

// stageRun is what one search stage produced.
type stageRun struct {
	resp  *provider.SearchResponse
	match *provider.SearchResult
	facts StageTrace
}

// Resolve turns a free-text query into a catalog record. Stages run in
// order and stop at the first match. A no-match result is returned as an
// Outcome with SearchSource == SourceNone, not as an error.
//
// Errors: ErrInvalidInput for an empty query, ErrMissingCredential when the
// searcher has no credential, and a *StageError wrapping the provider error
// when the primary or fallback search fails. A failed hint search is a no
// match unless ctx is done, in which case the *StageError wraps ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, query string) (*Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if err := r.checkCredentials(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := r.logger.With(slog.String("run_id", uuid.NewString()))
	trace := &Trace{}
	out := &Outcome{
		Query:        query,
		SearchSource: SourceNone,
		PrimaryQuery: r.selector.SiteQuery(query),
		Trace:        trace,
	}

	// Primary: restricted to the catalog domain.
	primary, err := r.runStage(ctx, log, StagePrimary, out.PrimaryQuery)
	trace.Add(StagePrimary, primary.facts)
	if err != nil {
		return nil, r.stageFailure(StagePrimary, trace, err)
	}
	if primary.match != nil {
		return r.finish(ctx, log, out, SourcePrimary, primary.match, start), nil
	}

	// Fallback: the query as given.
	fallback, err := r.runStage(ctx, log, StageFallback, query)
	if err != nil {
		trace.Add(StageFallback, fallback.facts)
		return nil, r.stageFailure(StageFallback, trace, err)
	}
	if fallback.match != nil {
		trace.Add(StageFallback, fallback.facts)
		return r.finish(ctx, log, out, SourceFallback, fallback.match, start), nil
	}

	candidate := r.selector.PickHint(fallback.resp.Results)
	if candidate != nil {
		fallback.facts.HintCandidate = candidate.Title
		fallback.facts.HintCandidateLink = candidate.Link
	}
	trace.Add(StageFallback, fallback.facts)
	if candidate == nil {
		log.Debug("no hint candidate in fallback results")
		return r.finish(ctx, log, out, SourceNone, nil, start), nil
	}
	hint, ok := ExtractHint(candidate.Title)
	if !ok {
		log.Debug("hint candidate title not parseable", slog.String("title", candidate.Title))
		return r.finish(ctx, log, out, SourceNone, nil, start), nil
	}

	// Hint: quoted artist and title mined from the candidate.
	hinted, err := r.runStage(ctx, log, StageHint, r.selector.HintQuery(hint))
	hinted.facts.Hint = &hint
	trace.Add(StageHint, hinted.facts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &StageError{Stage: StageHint, Trace: trace, Err: ctxErr}
		}
		log.Warn("hint search failed", slog.String("error", err.Error()))
		return r.finish(ctx, log, out, SourceNone, nil, start), nil
	}
	if hinted.match != nil {
		return r.finish(ctx, log, out, SourceHint, hinted.match, start), nil
	}
	return r.finish(ctx, log, out, SourceNone, nil, start), nil
}

func (r *Resolver) checkCredentials() error {
	cc, ok := r.searcher.(provider.CredentialChecker)
	if !ok {
		return nil
	}
	if err := cc.CheckCredentials(); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}
	return nil
}

// runStage issues one search and selects a catalog match from it, trying
// the structured results before scanning the raw body.
func (r *Resolver) runStage(ctx context.Context, log *slog.Logger, stage Stage, query string) (stageRun, error) {
	run := stageRun{facts: StageTrace{Query: query}}

	resp, err := r.searcher.Search(ctx, query)
	if err != nil {
		run.facts.Error = err.Error()
		r.metrics.observeStage(stage, searchError)
		return run, err
	}
	run.resp = resp
	run.facts.ResultCount = len(resp.Results)

	if m := r.selector.PickCatalogMatch(resp.Results); m != nil {
		run.match = m
		run.facts.MatchedBy = MatchedByResults
	} else if m := r.selector.PickCatalogFromAny(resp.Raw); m != nil {
		run.match = m
		run.facts.MatchedBy = MatchedByScan
	}

	result := searchEmpty
	if run.match != nil {
		run.facts.MatchedLink = run.match.Link
		result = searchMatched
	}
	r.metrics.observeStage(stage, result)

	log.Debug("stage complete",
		slog.String("stage", string(stage)),
		slog.Int("results", run.facts.ResultCount),
		slog.String("matched_by", run.facts.MatchedBy))
	return run, nil
}

func (r *Resolver) stageFailure(stage Stage, trace *Trace, err error) error {
	var authErr *provider.ErrAuthRequired
	if errors.As(err, &authErr) {
		err = fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}
	return &StageError{Stage: stage, Trace: trace, Err: err}
}

// finish enriches a match from the catalog and seals the outcome. The search
// result title wins; the catalog fills it only when empty. The catalog cover
// wins over the search thumbnail.
func (r *Resolver) finish(ctx context.Context, log *slog.Logger, out *Outcome, source Source, match *provider.SearchResult, start time.Time) *Outcome {
	out.SearchSource = source
	if match != nil {
		out.CanonicalURL = match.Link
		out.Title = match.Title
		out.CoverImage = match.Thumbnail

		if r.catalog != nil {
			if entry := r.catalog.FetchMetadata(ctx, match.Link); entry != nil {
				if out.Title == "" {
					out.Title = entry.Title
				}
				if cover := entry.CoverImage(); cover != "" {
					out.CoverImage = cover
				}
			}
		}
	}

	elapsed := time.Since(start)
	r.metrics.observeOutcome(source, elapsed)
	log.Info("resolution complete",
		slog.String("source", string(source)),
		slog.String("canonical_url", out.CanonicalURL),
		slog.Int("stages", out.Trace.Len()),
		slog.Duration("elapsed", elapsed))
	return out
}
