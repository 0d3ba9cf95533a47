// internal/workers/underwriting/index-match-results/handler.go
package indexmatchresults

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	commonerrors "underwriting-workers/internal/common/errors"
	"underwriting-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const TaskType = "index-match-results"

const queryRunMatches = `
	SELECT mr.id, mr.application_id, mr.run_id, mr.lender_id, l.display_name,
	       mr.program_id, p.name, mr.status, mr.fit_score, mr.summary,
	       mr.recommendation, mr.criteria_met, mr.criteria_failed, mr.criteria_total,
	       mr.created_at
	FROM match_results mr
	JOIN lenders l ON l.id = mr.lender_id
	JOIN lender_programs p ON p.id = mr.program_id
	WHERE mr.run_id = $1
	ORDER BY mr.fit_score DESC, mr.id`

type Handler struct {
	config     *Config
	db         *sql.DB
	es         *elasticsearch.Client
	logger     logger.Logger
	errHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		db:         db,
		es:         es,
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
		return nil, commonerrors.NewApplicationValidationFailedError("runId is required to index match results")
	}

	docs, err := h.loadDocuments(ctx, input.RunID)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("load run match results", err)
	}

	// A run with zero persisted matches has nothing to index; that is a valid
	// outcome, not an error.
	if len(docs) == 0 {
		h.logger.Info("no match results to index", map[string]interface{}{
			"runId": input.RunID,
		})
		return &Output{
			ApplicationID: input.ApplicationID,
			RunID:         input.RunID,
			IndexName:     h.config.IndexName,
			Indexed:       0,
		}, nil
	}

	if err := h.bulkIndex(ctx, docs); err != nil {
		return nil, err
	}

	h.logger.Info("match results indexed", map[string]interface{}{
		"runId":   input.RunID,
		"index":   h.config.IndexName,
		"indexed": len(docs),
	})

	return &Output{
		ApplicationID: input.ApplicationID,
		RunID:         input.RunID,
		IndexName:     h.config.IndexName,
		Indexed:       len(docs),
	}, nil
}

func (h *Handler) loadDocuments(ctx context.Context, runID string) ([]MatchDocument, error) {
	rows, err := h.db.QueryContext(ctx, queryRunMatches, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now().UTC()
	var docs []MatchDocument
	for rows.Next() {
		var d MatchDocument
		if err := rows.Scan(&d.MatchID, &d.ApplicationID, &d.RunID, &d.LenderID, &d.LenderName,
			&d.ProgramID, &d.ProgramName, &d.Status, &d.FitScore, &d.Summary,
			&d.Recommendation, &d.CriteriaMet, &d.CriteriaFailed, &d.CriteriaTotal,
			&d.MatchedAt); err != nil {
			return nil, err
		}
		d.IndexedAt = now
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// bulkIndex writes all documents in a single bulk request. Documents use the
// match result's primary key as the document ID, so re-running the job
// overwrites rather than duplicates.
func (h *Handler) bulkIndex(ctx context.Context, docs []MatchDocument) error {
	var body bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":"%d"}}`, h.config.IndexName, doc.MatchID)
		body.WriteString(meta)
		body.WriteByte('\n')

		data, err := json.Marshal(doc)
		if err != nil {
			return commonerrors.NewIndexingFailedError(h.config.IndexName, err)
		}
		body.Write(data)
		body.WriteByte('\n')
	}

	res, err := h.es.Bulk(bytes.NewReader(body.Bytes()),
		h.es.Bulk.WithContext(ctx),
		h.es.Bulk.WithIndex(h.config.IndexName),
	)
	if err != nil {
		return commonerrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("bulk request failed: %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return commonerrors.NewIndexingFailedError(h.config.IndexName, err)
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &bulkRes); err != nil {
		return commonerrors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("decode bulk response: %w", err))
	}

	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			for _, op := range item {
				if op.Error != nil {
					return commonerrors.NewIndexingFailedError(h.config.IndexName,
						fmt.Errorf("%s: %s", op.Error.Type, op.Error.Reason))
				}
			}
		}
		return commonerrors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("bulk response reported item errors"))
	}

	return nil
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
