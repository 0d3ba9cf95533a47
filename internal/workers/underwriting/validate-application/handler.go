// internal/workers/underwriting/validate-application/handler.go
package validateapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"
	"underwriting-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-application"
)

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
	app, err := h.loadApplication(ctx, input.ApplicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, commonerrors.NewApplicationNotFoundError(fmt.Sprintf("%d", input.ApplicationID))
		}
		return nil, commonerrors.NewQueryExecutionFailedError("load_application", err)
	}

	problems := validate(app)
	if len(problems) > 0 {
		h.logger.Warn("application failed validation", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"problems":      problems,
		})
		return nil, commonerrors.NewApplicationValidationFailedError(strings.Join(problems, "; "))
	}

	h.logger.Info("application validated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"referenceId":   app.ReferenceID,
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		Valid:         true,
		Application:   app,
	}, nil
}

func (h *Handler) loadApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, reference_id, status, business, guarantor, business_credit, loan_request, created_at, updated_at
		FROM loan_applications WHERE id = $1`, id)

	var (
		app                                  models.LoanApplication
		business, guarantor, credit, loanReq []byte
	)
	err := row.Scan(&app.ID, &app.ReferenceID, &app.Status, &business, &guarantor, &credit, &loanReq, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(business) > 0 {
		if err := json.Unmarshal(business, &app.Business); err != nil {
			return nil, fmt.Errorf("malformed business payload: %w", err)
		}
	}
	if len(guarantor) > 0 {
		if err := json.Unmarshal(guarantor, &app.Guarantor); err != nil {
			return nil, fmt.Errorf("malformed guarantor payload: %w", err)
		}
	}
	if len(credit) > 0 {
		if err := json.Unmarshal(credit, &app.BusinessCredit); err != nil {
			return nil, fmt.Errorf("malformed business credit payload: %w", err)
		}
	}
	if len(loanReq) > 0 {
		if err := json.Unmarshal(loanReq, &app.LoanRequest); err != nil {
			return nil, fmt.Errorf("malformed loan request payload: %w", err)
		}
	}

	return &app, nil
}

// validate checks structural completeness. Criterion-level gaps (a missing
// FICO score, an unknown equipment year) are left for the engine to judge;
// only fields no evaluation can proceed without are enforced here.
func validate(app *models.LoanApplication) []string {
	var problems []string

	if app.Business == nil {
		problems = append(problems, "business profile is missing")
	} else {
		if strings.TrimSpace(app.Business.LegalName) == "" {
			problems = append(problems, "business legal name is required")
		}
		if strings.TrimSpace(app.Business.State) == "" {
			problems = append(problems, "business state is required")
		}
	}

	if app.Guarantor == nil {
		problems = append(problems, "personal guarantor is missing")
	} else {
		if strings.TrimSpace(app.Guarantor.FirstName) == "" || strings.TrimSpace(app.Guarantor.LastName) == "" {
			problems = append(problems, "guarantor name is required")
		}
	}

	if app.LoanRequest == nil {
		problems = append(problems, "loan request is missing")
	} else {
		if app.LoanRequest.RequestedAmount == nil || *app.LoanRequest.RequestedAmount <= 0 {
			problems = append(problems, "requested amount must be greater than zero")
		}
	}

	return problems
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
