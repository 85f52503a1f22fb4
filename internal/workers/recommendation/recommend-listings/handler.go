// internal/workers/recommendation/recommend-listings/handler.go
package recommendlistings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/common/validation"
	"food-recommender/internal/models"
	"food-recommender/internal/pipeline"
)

const (
	TaskType = "recommend-listings"
)

var (
	ErrNilInput = errors.New("INPUT_REQUIRED")
)

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

type Recommender interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Handler struct {
	config      *Config
	recommender Recommender
	profiles    ProfileStore
	errors      *apperrors.ErrorHandler
	logger      logger.Logger
}

// NewHandler builds the worker. profiles may be nil when every job carries its profile inline.
func NewHandler(config *Config, recommender Recommender, profiles ProfileStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		recommender: recommender,
		profiles:    profiles,
		errors:      apperrors.NewErrorHandler(log),
		logger:      log,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

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
	return decodeInput(job.Variables)
}

func decodeInput(variables string) (*Input, error) {
	result := inputSchema.ValidateJSON(variables)
	if !result.Valid {
		return nil, apperrors.NewInputValidationFailedError(result.Error())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError(ErrNilInput.Error())
	}

	profile, err := h.resolveProfile(ctx, input)
	if err != nil {
		return nil, err
	}

	enrich := h.config.EnrichQuery
	if input.EnrichQuery != nil {
		enrich = *input.EnrichQuery
	}

	result, err := h.recommender.Run(ctx, pipeline.Request{
		Query:       input.Query,
		Profile:     profile,
		EnrichQuery: enrich,
	})
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, p := range result.Platforms {
		if p.Failed() {
			failed++
		}
	}
	h.logger.Info("recommendations ready", map[string]interface{}{
		"requestId":       result.RequestID,
		"userId":          profile.ID,
		"count":           result.Count,
		"platforms":       len(result.Platforms),
		"failedPlatforms": failed,
	})

	return &Output{
		RequestID: result.RequestID,
		Intent:    result.Intent,
		Results:   result.Results,
		Count:     result.Count,
		Platforms: result.Platforms,
	}, nil
}

// resolveProfile prefers an inline profile and falls back to the store for userId.
func (h *Handler) resolveProfile(ctx context.Context, input *Input) (*models.UserProfile, error) {
	if input.Profile != nil {
		p := *input.Profile
		if p.ID == "" {
			p.ID = input.UserID
		}
		return &p, nil
	}
	if input.UserID == "" || h.profiles == nil {
		return nil, apperrors.NewProfileNotFoundError(input.UserID)
	}
	return h.profiles.Get(ctx, input.UserID)
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
