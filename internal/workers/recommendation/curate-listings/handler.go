// internal/workers/recommendation/curate-listings/handler.go
package curatelistings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/common/validation"
	"food-recommender/internal/models"
	"food-recommender/internal/ranking"
	"food-recommender/internal/suitability"
)

const TaskType = "curate-listings"

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

// Handler filters and ranks listings gathered elsewhere in the process, for BPMN
// flows that fan out retrieval themselves.
type Handler struct {
	config *Config
	filter *suitability.Filter
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, filter *suitability.Filter, log logger.Logger) *Handler {
	if filter == nil {
		filter = suitability.NewFilter(nil, log)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		filter: filter,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result := inputSchema.ValidateJSON(job.Variables)
	if !result.Valid {
		return nil, apperrors.NewInputValidationFailedError(result.Error())
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	schemeName := input.RankingScheme
	if schemeName == "" {
		schemeName = h.config.RankingScheme
	}
	scheme, err := ranking.SchemeByName(schemeName)
	if err != nil {
		return nil, apperrors.NewInputValidationFailedError(err.Error())
	}

	for i, l := range input.Listings {
		if err := l.Validate(); err != nil {
			return nil, apperrors.NewInputValidationFailedError(fmt.Sprintf("listings[%d]: %v", i, err))
		}
	}

	profile := input.Profile.Normalize()
	suitable := h.filter.Apply(input.Listings, profile)
	ranked := ranking.NewEngine(scheme, h.logger).Rank(suitable, profile)

	limit := input.Limit
	if limit == 0 {
		limit = h.config.MaxResults
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []models.Listing{}
	}

	h.logger.Debug("listings curated", map[string]interface{}{
		"input":   len(input.Listings),
		"removed": len(input.Listings) - len(suitable),
		"output":  len(ranked),
		"scheme":  scheme.Name,
	})

	return &Output{
		Listings:     ranked,
		Count:        len(ranked),
		RemovedCount: len(input.Listings) - len(suitable),
		Scheme:       scheme.Name,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.failJob(client, job, err)
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := h.errors.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
