// internal/workers/underwriting/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-notification"

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

type Handler struct {
	config     *Config
	email      EmailSender
	sms        SMSSender
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		email:      email,
		sms:        sms,
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
	output := &Output{
		ApplicationID:  input.ApplicationID,
		RunID:          input.RunID,
		NotificationID: uuid.New().String(),
		Channels:       []string{},
	}

	subject, body := h.composeEmail(input)

	if h.config.EmailEnabled && input.RecipientEmail != "" {
		if err := h.email.SendPlainEmail(ctx, h.config.FromEmail, input.RecipientEmail, subject, body); err != nil {
			return nil, commonerrors.NewNotificationSendFailedError("email", err)
		}
		output.EmailSent = true
		output.Channels = append(output.Channels, "email")
	}

	if h.shouldSendSMS(input) {
		if err := h.sms.PublishSMS(ctx, input.RecipientPhone, h.composeSMS(input)); err != nil {
			return nil, commonerrors.NewNotificationSendFailedError("sms", err)
		}
		output.SMSSent = true
		output.Channels = append(output.Channels, "sms")
	}

	h.logger.Info("notification dispatched", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"runId":          input.RunID,
		"notificationId": output.NotificationID,
		"channels":       output.Channels,
	})

	return output, nil
}

// shouldSendSMS gates the SMS channel: it is reserved for strong matches so
// applicants are not texted about declines.
func (h *Handler) shouldSendSMS(input *Input) bool {
	if !h.config.SMSEnabled || input.RecipientPhone == "" {
		return false
	}
	if input.FinalStatus != "MATCHED" || input.BestMatchFitScore == nil {
		return false
	}
	return *input.BestMatchFitScore >= h.config.SMSFitThreshold
}

func (h *Handler) composeEmail(input *Input) (subject, body string) {
	switch input.FinalStatus {
	case "MATCHED":
		subject = fmt.Sprintf("Financing match found for application %d", input.ApplicationID)
	case "REVIEW_ONLY":
		subject = fmt.Sprintf("Application %d needs additional review", input.ApplicationID)
	default:
		subject = fmt.Sprintf("Update on application %d", input.ApplicationID)
	}

	body = fmt.Sprintf("Your application has been evaluated against our lender network.\n\n%s\n\nReference: %s",
		input.Summary, input.RunID)
	return subject, body
}

func (h *Handler) composeSMS(input *Input) string {
	return fmt.Sprintf("Good news: a lender match was found for your financing application %d (fit %.0f). Details have been emailed to you.",
		input.ApplicationID, *input.BestMatchFitScore)
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
