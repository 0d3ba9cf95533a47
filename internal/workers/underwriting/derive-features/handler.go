// internal/workers/underwriting/derive-features/handler.go
package derivefeatures

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"
	"underwriting-workers/internal/models"
	"underwriting-workers/internal/underwriting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "derive-features"
)

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
	now        func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		errHandler: commonerrors.NewErrorHandler(log),
		now:        time.Now,
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
	app := input.Application
	if app == nil {
		return nil, commonerrors.NewFeatureDerivationFailedError("application snapshot missing from job variables")
	}

	underwriting.DeriveFeatures(app, h.now())

	derived := DerivedFeatures{}
	if app.Business != nil {
		derived.MonthsInBusiness = app.Business.MonthsInBusiness
		derived.YearsInBusiness = app.Business.YearsInBusiness
	}
	if app.LoanRequest != nil {
		derived.EquipmentAgeYears = app.LoanRequest.EquipmentAgeYears
		derived.DownPaymentPercent = app.LoanRequest.DownPaymentPercent
	}

	if err := h.persistDerived(ctx, app.ID, app); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("persist_derived_features", err)
	}

	h.logger.Info("features derived", map[string]interface{}{
		"applicationId": app.ID,
		"derived":       derived,
	})

	return &Output{
		ApplicationID: app.ID,
		Application:   app,
		Derived:       derived,
	}, nil
}

// persistDerived writes the filled-in business and loan request payloads back
// so later steps and reruns see the same snapshot.
func (h *Handler) persistDerived(ctx context.Context, id int64, app *models.LoanApplication) error {
	business, err := json.Marshal(app.Business)
	if err != nil {
		return fmt.Errorf("marshal business: %w", err)
	}
	loanReq, err := json.Marshal(app.LoanRequest)
	if err != nil {
		return fmt.Errorf("marshal loan request: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		UPDATE loan_applications
		SET business = $2, loan_request = $3, updated_at = NOW()
		WHERE id = $1`, id, business, loanReq)
	return err
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
