// internal/workers/underwriting/evaluate-lenders/handler.go
package evaluatelenders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"
	"underwriting-workers/internal/common/metrics"
	"underwriting-workers/internal/models"
	"underwriting-workers/internal/underwriting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "evaluate-lenders"

	catalogCacheKey = "underwriting:catalog:active"
)

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	engine     *underwriting.Engine
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
		redis:      rdb,
		engine:     underwriting.NewEngine(underwriting.NewRegistry(), underwriting.WithMaxParallel(config.MaxParallel)),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errHandler: commonerrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.UnderwritingRunsTotal.WithLabelValues("failed").Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.UnderwritingRunsTotal.WithLabelValues("completed").Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Application == nil {
		return nil, commonerrors.NewApplicationNotFoundError(fmt.Sprintf("%d (snapshot missing from job variables)", input.ApplicationID))
	}

	lenders, err := h.getCatalog(ctx)
	if err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	if len(lenders) == 0 {
		return nil, commonerrors.NewCatalogEmptyError()
	}

	startedAt := time.Now().UTC()
	envelope, err := h.engine.Evaluate(input.Application, lenders)
	if err != nil {
		return nil, commonerrors.NewApplicationValidationFailedError(err.Error())
	}
	metrics.EvaluationDuration.Observe(time.Since(startedAt).Seconds())
	metrics.ProgramsEvaluated.WithLabelValues("eligible").Add(float64(envelope.EligibleCount))
	metrics.ProgramsEvaluated.WithLabelValues("needs_review").Add(float64(envelope.NeedsReviewCount))
	metrics.ProgramsEvaluated.WithLabelValues("ineligible").Add(float64(envelope.IneligibleCount))

	runID := uuid.New().String()
	if err := persistResults(ctx, h.db, runID, input.Application.ID, envelope, startedAt); err != nil {
		return nil, commonerrors.NewMatchPersistFailedError(err)
	}

	outcome := OutcomeNoMatches
	switch {
	case envelope.EligibleCount > 0:
		outcome = OutcomeMatched
	case envelope.NeedsReviewCount > 0:
		outcome = OutcomeReviewOnly
	}

	h.logger.Info("lender evaluation complete", map[string]interface{}{
		"applicationId": input.Application.ID,
		"runId":         runID,
		"totalPrograms": envelope.TotalPrograms,
		"eligible":      envelope.EligibleCount,
		"needsReview":   envelope.NeedsReviewCount,
		"ineligible":    envelope.IneligibleCount,
		"outcome":       outcome,
	})

	return &Output{
		ApplicationID:    input.Application.ID,
		RunID:            runID,
		TotalPrograms:    envelope.TotalPrograms,
		EligibleCount:    envelope.EligibleCount,
		NeedsReviewCount: envelope.NeedsReviewCount,
		IneligibleCount:  envelope.IneligibleCount,
		BestMatch:        envelope.BestMatch,
		Status:           outcome,
	}, nil
}

// getCatalog returns the active lender catalog, preferring the Redis snapshot
// and falling back to Postgres on a miss. A cache read error is treated as a
// miss; evaluation never fails because the cache is down.
func (h *Handler) getCatalog(ctx context.Context) ([]models.Lender, error) {
	if val, err := h.redis.Get(ctx, catalogCacheKey).Result(); err == nil {
		var lenders []models.Lender
		if err := json.Unmarshal([]byte(val), &lenders); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
			return lenders, nil
		}
		h.logger.Warn("discarding malformed catalog cache entry", map[string]interface{}{
			"key": catalogCacheKey,
		})
		h.redis.Del(ctx, catalogCacheKey)
	}
	metrics.CatalogCacheHits.WithLabelValues("miss").Inc()

	lenders, err := loadCatalog(ctx, h.db)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(lenders); err == nil {
		h.redis.Set(ctx, catalogCacheKey, data, h.config.CacheTTL)
	}

	return lenders, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
