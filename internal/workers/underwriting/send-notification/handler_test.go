// internal/workers/underwriting/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailSender struct {
	from, to, subject, body string
	calls                   int
	err                     error
}

func (f *fakeEmailSender) SendPlainEmail(_ context.Context, from, to, subject, body string) error {
	f.calls++
	f.from, f.to, f.subject, f.body = from, to, subject, body
	return f.err
}

type fakeSMSSender struct {
	phone, message string
	calls          int
	err            error
}

func (f *fakeSMSSender) PublishSMS(_ context.Context, phoneNumber, message string) error {
	f.calls++
	f.phone, f.message = phoneNumber, message
	return f.err
}

func testConfig() *Config {
	return &Config{
		EmailEnabled:    true,
		FromEmail:       "underwriting@example.com",
		SMSEnabled:      true,
		SMSFitThreshold: 80.0,
		Timeout:         10 * time.Second,
	}
}

func matchedInput() *Input {
	fit := 92.5
	return &Input{
		ApplicationID:     42,
		RunID:             "run-abc-123",
		FinalStatus:       "MATCHED",
		Summary:           "Evaluated 5 programs: 2 eligible, 1 need review, 2 ineligible.",
		RecipientEmail:    "owner@acme.example",
		RecipientPhone:    "+15555550100",
		BestMatchFitScore: &fit,
	}
}

func TestHandler_Execute_MatchedSendsEmailAndSMS(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), matchedInput())

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.NotEmpty(t, output.NotificationID)
	assert.True(t, output.EmailSent)
	assert.True(t, output.SMSSent)
	assert.Equal(t, []string{"email", "sms"}, output.Channels)

	assert.Equal(t, 1, email.calls)
	assert.Equal(t, "underwriting@example.com", email.from)
	assert.Equal(t, "owner@acme.example", email.to)
	assert.Contains(t, email.subject, "match found")
	assert.Contains(t, email.body, "2 eligible")
	assert.Contains(t, email.body, "run-abc-123")

	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, "+15555550100", sms.phone)
	assert.Contains(t, sms.message, "lender match")
}

func TestHandler_Execute_NoMatchSkipsSMS(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	input := matchedInput()
	input.FinalStatus = "NO_MATCHES"
	input.BestMatchFitScore = nil

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Equal(t, 0, sms.calls)
	assert.Contains(t, email.subject, "Update on application")
}

func TestHandler_Execute_FitBelowThresholdSkipsSMS(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	input := matchedInput()
	lowFit := 65.0
	input.BestMatchFitScore = &lowFit

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Equal(t, 0, sms.calls)
}

func TestHandler_Execute_EmailDisabled(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	cfg := testConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	handler := NewHandler(cfg, email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), matchedInput())

	require.NoError(t, err)
	assert.False(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Empty(t, output.Channels)
	assert.Equal(t, 0, email.calls)
}

func TestHandler_Execute_MissingEmailAddress(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	input := matchedInput()
	input.RecipientEmail = ""
	input.RecipientPhone = ""

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 0, email.calls)
	assert.Empty(t, output.Channels)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("ses throttled")}
	sms := &fakeSMSSender{}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), matchedInput())

	require.Error(t, err)
	assert.Nil(t, output)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "email")
	assert.Equal(t, 0, sms.calls)
}

func TestHandler_Execute_SMSFailure(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{err: errors.New("sns unavailable")}
	handler := NewHandler(testConfig(), email, sms, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), matchedInput())

	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "sms")
}
