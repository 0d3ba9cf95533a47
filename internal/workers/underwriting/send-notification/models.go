// internal/workers/underwriting/send-notification/models.go
package sendnotification

type Input struct {
	ApplicationID     int64    `json:"applicationId"`
	RunID             string   `json:"runId"`
	FinalStatus       string   `json:"finalStatus"`
	Summary           string   `json:"runSummary"`
	RecipientEmail    string   `json:"recipientEmail,omitempty"`
	RecipientPhone    string   `json:"recipientPhone,omitempty"`
	BestMatchFitScore *float64 `json:"bestMatchFitScore,omitempty"`
}

type Output struct {
	ApplicationID  int64    `json:"applicationId"`
	RunID          string   `json:"runId"`
	NotificationID string   `json:"notificationId"`
	Channels       []string `json:"channelsUsed"`
	EmailSent      bool     `json:"emailSent"`
	SMSSent        bool     `json:"smsSent"`
}
