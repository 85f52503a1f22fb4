// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/common/observability"
	"food-recommender/internal/intent"
	"food-recommender/internal/models"
	"food-recommender/internal/ranking"
	"food-recommender/internal/retrieval"
	"food-recommender/internal/suitability"
)

const DefaultProviderTimeout = 8 * time.Second

type Options struct {
	// ProviderTimeout bounds each platform call.
	ProviderTimeout time.Duration
	// MaxResults truncates the ranked list; 0 keeps everything.
	MaxResults int
}

type Dependencies struct {
	Classifier    *intent.Classifier
	Registry      *retrieval.Registry
	Filter        *suitability.Filter
	Ranker        *ranking.Engine
	Observability *observability.Observability
	Logger        logger.Logger
}

// Orchestrator runs intent -> retrieve -> filter -> rank for one request.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	classifier *intent.Classifier
	registry   *retrieval.Registry
	filter     *suitability.Filter
	ranker     *ranking.Engine
	obs        *observability.Observability
	options    Options
	logger     logger.Logger
}

func New(deps Dependencies, opts Options) (*Orchestrator, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("platform registry is required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}

	o := &Orchestrator{
		classifier: deps.Classifier,
		registry:   deps.Registry,
		filter:     deps.Filter,
		ranker:     deps.Ranker,
		obs:        deps.Observability,
		options:    opts,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	if o.classifier == nil {
		o.classifier = intent.NewClassifier(nil, log)
	}
	if o.filter == nil {
		o.filter = suitability.NewFilter(nil, log)
	}
	if o.ranker == nil {
		o.ranker = ranking.NewEngine(nil, log)
	}
	return o, nil
}

type Request struct {
	Query   string
	Profile *models.UserProfile
	// EnrichQuery sends the diet/allergy/location enriched query to the platforms
	// instead of the raw text.
	EnrichQuery bool
}

// PlatformOutcome reports how one platform call went.
type PlatformOutcome struct {
	Platform   string `json:"platform"`
	Count      int    `json:"count"`
	DurationMs int64  `json:"durationMs"`
	Dropped    int    `json:"dropped,omitempty"` // listings rejected by Listing.Validate
	ErrorCode  string `json:"errorCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (p PlatformOutcome) Failed() bool {
	return p.ErrorCode != ""
}

type Result struct {
	RequestID string            `json:"requestId"`
	Intent    models.Intent     `json:"intent"`
	Query     string            `json:"query"`
	Results   []models.Listing  `json:"results"`
	Count     int               `json:"count"`
	Platforms []PlatformOutcome `json:"platforms"`
}

// Recommend runs the pipeline with the raw query sent to every platform.
func (o *Orchestrator) Recommend(ctx context.Context, rawQuery string, profile *models.UserProfile) (*Result, error) {
	return o.Run(ctx, Request{Query: rawQuery, Profile: profile})
}

// Run fails only for an empty query or a missing profile. Platform failures, filter
// errors and ranking errors are absorbed and reported through logs and PlatformOutcome.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if strings.TrimSpace(req.Query) == "" {
		o.obs.RecordJobProcessed(ctx, "rejected")
		return nil, apperrors.NewInvalidInputError("query must not be empty")
	}
	if req.Profile == nil {
		o.obs.RecordJobProcessed(ctx, "rejected")
		return nil, apperrors.NewProfileNotFoundError("")
	}

	requestID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{"requestId": requestID})

	ctx, span := o.obs.StartSpan(ctx, "recommend", attribute.String("request.id", requestID))
	defer span.End()

	profile := req.Profile.Normalize()

	var in models.Intent
	o.timed(ctx, "classify", func() {
		in = o.classifier.Classify(req.Query, profile)
	})

	query := strings.TrimSpace(req.Query)
	if req.EnrichQuery {
		query = intent.BuildSearchQuery(query, in, profile)
	}

	var (
		candidates []models.Listing
		outcomes   []PlatformOutcome
	)
	o.timed(ctx, "retrieve", func() {
		candidates, outcomes = o.retrieve(ctx, o.targets(in), query, profile.Location, log)
	})

	var suitable []models.Listing
	o.timed(ctx, "filter", func() {
		suitable = o.filter.Apply(candidates, profile)
	})

	var ranked []models.Listing
	o.timed(ctx, "rank", func() {
		ranked = o.ranker.Rank(suitable, profile)
	})

	if o.options.MaxResults > 0 && len(ranked) > o.options.MaxResults {
		ranked = ranked[:o.options.MaxResults]
	}
	if ranked == nil {
		ranked = []models.Listing{}
	}

	metrics.RecommendationsServed.WithLabelValues(string(in.Type)).Inc()
	o.obs.RecordJobProcessed(ctx, "completed")
	o.obs.RecordJobDuration(ctx, time.Since(start), "completed")
	log.Info("recommendation completed", map[string]interface{}{
		"intentType":     string(in.Type),
		"cuisine":        in.Cuisine,
		"platformFilter": in.PlatformFilter,
		"candidates":     len(candidates),
		"suitable":       len(suitable),
		"count":          len(ranked),
	})

	return &Result{
		RequestID: requestID,
		Intent:    in,
		Query:     query,
		Results:   ranked,
		Count:     len(ranked),
		Platforms: outcomes,
	}, nil
}

type target struct {
	name     string
	provider retrieval.Provider // nil when the named platform is not registered
}

// targets lists every registered platform in priority order, or only the one the
// query named.
func (o *Orchestrator) targets(in models.Intent) []target {
	if in.TargetsAllPlatforms() {
		platforms := o.registry.Platforms()
		out := make([]target, len(platforms))
		for i, p := range platforms {
			out[i] = target{name: p.Name, provider: p.Provider}
		}
		return out
	}
	provider, _ := o.registry.Lookup(in.PlatformFilter)
	return []target{{name: in.PlatformFilter, provider: provider}}
}

type platformResult struct {
	listings []models.Listing
	outcome  PlatformOutcome
}

func (o *Orchestrator) retrieve(ctx context.Context, targets []target, query, location string, log logger.Logger) ([]models.Listing, []PlatformOutcome) {
	slots := make([]platformResult, len(targets))

	var g errgroup.Group
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			slots[i] = o.search(ctx, t, query, location, log)
			return nil
		})
	}
	_ = g.Wait()

	var listings []models.Listing
	outcomes := make([]PlatformOutcome, len(slots))
	for i, slot := range slots {
		outcomes[i] = slot.outcome
		for _, l := range slot.listings {
			if l.Platform == "" {
				l.Platform = slot.outcome.Platform
			}
			listings = append(listings, l)
		}
	}
	return listings, outcomes
}

type reply struct {
	listings []models.Listing
	err      error
}

// search calls one provider under its own deadline. A provider that ignores the
// deadline is abandoned; its goroutine finishes into a buffered channel nobody reads.
func (o *Orchestrator) search(ctx context.Context, t target, query, location string, log logger.Logger) platformResult {
	start := time.Now()
	outcome := PlatformOutcome{Platform: t.name}

	if t.provider == nil {
		stdErr := apperrors.NewUnknownPlatformError(t.name)
		outcome.ErrorCode = string(stdErr.Code)
		outcome.Error = stdErr.Details
		metrics.ProviderCalls.WithLabelValues(t.name, "unknown").Inc()
		log.Warn("query named an unregistered platform", map[string]interface{}{
			"platform":  t.name,
			"errorCode": outcome.ErrorCode,
		})
		return platformResult{outcome: outcome}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.options.ProviderTimeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		listings, err := t.provider.Search(callCtx, query, location)
		done <- reply{listings: listings, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-callCtx.Done():
		r.err = callCtx.Err()
	}

	elapsed := time.Since(start)
	outcome.DurationMs = elapsed.Milliseconds()
	metrics.ProviderLatency.WithLabelValues(t.name).Observe(elapsed.Seconds())

	if r.err != nil {
		var stdErr *apperrors.StandardError
		label := "failure"
		if errors.Is(r.err, context.DeadlineExceeded) {
			stdErr = apperrors.NewProviderTimeoutError(t.name, o.options.ProviderTimeout)
			label = "timeout"
		} else {
			stdErr = apperrors.NewProviderFailureError(t.name, r.err)
		}
		outcome.ErrorCode = string(stdErr.Code)
		outcome.Error = stdErr.Details
		metrics.ProviderCalls.WithLabelValues(t.name, label).Inc()
		o.obs.RecordStageError(ctx, "retrieve", outcome.ErrorCode)
		log.Warn("platform retrieval failed", map[string]interface{}{
			"platform":   t.name,
			"errorCode":  outcome.ErrorCode,
			"error":      r.err.Error(),
			"durationMs": outcome.DurationMs,
		})
		return platformResult{outcome: outcome}
	}

	valid := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if err := l.Validate(); err != nil {
			outcome.Dropped++
			log.Warn("dropping invalid listing", map[string]interface{}{
				"platform": t.name,
				"listing":  l.Name,
				"error":    err.Error(),
			})
			continue
		}
		valid = append(valid, l)
	}

	outcome.Count = len(valid)
	metrics.ProviderCalls.WithLabelValues(t.name, "success").Inc()
	log.Debug("platform retrieval completed", map[string]interface{}{
		"platform":   t.name,
		"count":      outcome.Count,
		"durationMs": outcome.DurationMs,
	})
	return platformResult{listings: valid, outcome: outcome}
}

func (o *Orchestrator) timed(ctx context.Context, stage string, fn func()) {
	start := time.Now()
	fn()
	o.obs.RecordStageDuration(ctx, stage, time.Since(start))
}
