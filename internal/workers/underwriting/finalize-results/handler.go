// internal/workers/underwriting/finalize-results/handler.go
package finalizeresults

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"
	"underwriting-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "finalize-results"

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
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
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RunID == "" {
		return nil, commonerrors.NewApplicationValidationFailedError("runId is required to finalize a run")
	}

	result, err := h.db.ExecContext(ctx, `
		UPDATE underwriting_runs
		SET status = 'COMPLETED', completed_at = NOW(),
		    total_lenders_evaluated = $2, eligible_lenders = $3
		WHERE workflow_run_id = $1`,
		input.RunID, input.TotalPrograms, input.EligibleCount)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("finalize underwriting run", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, commonerrors.NewResourceNotFoundError("underwriting run", input.RunID)
	}

	if _, err := h.db.ExecContext(ctx, `
		UPDATE loan_applications
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`,
		input.ApplicationID, string(models.ApplicationStatusCompleted)); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("finalize application", err)
	}

	finalStatus := finalStatusFor(input)
	summary := buildSummary(input, finalStatus)

	h.logger.Info("underwriting run finalized", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"runId":         input.RunID,
		"finalStatus":   finalStatus,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		RunID:         input.RunID,
		FinalStatus:   finalStatus,
		Summary:       summary,
	}, nil
}

func finalStatusFor(input *Input) string {
	switch {
	case input.EligibleCount > 0:
		return "MATCHED"
	case input.NeedsReviewCount > 0:
		return "REVIEW_ONLY"
	default:
		return "NO_MATCHES"
	}
}

func buildSummary(input *Input, finalStatus string) string {
	base := fmt.Sprintf("Evaluated %d programs: %d eligible, %d need review, %d ineligible.",
		input.TotalPrograms, input.EligibleCount, input.NeedsReviewCount, input.IneligibleCount)
	if finalStatus == "MATCHED" && input.BestMatch != nil {
		return fmt.Sprintf("%s Best match: %s / %s (fit %.1f).",
			base, input.BestMatch.LenderName, input.BestMatch.ProgramName, input.BestMatch.FitScore)
	}
	return base
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
