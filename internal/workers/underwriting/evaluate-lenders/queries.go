// internal/workers/underwriting/evaluate-lenders/queries.go
package evaluatelenders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"underwriting-workers/internal/models"
	"underwriting-workers/internal/underwriting"
)

const (
	queryActiveLenders = `
		SELECT id, name, display_name, is_active
		FROM lenders
		WHERE is_active = TRUE
		ORDER BY id`

	queryActivePrograms = `
		SELECT id, lender_id, name, is_active, priority
		FROM lender_programs
		WHERE is_active = TRUE
		ORDER BY id`

	queryActiveCriteria = `
		SELECT id, program_id, criteria_type, name, operator,
		       numeric_value, numeric_value_min, numeric_value_max,
		       string_value, list_values, is_required, weight, failure_message, is_active
		FROM policy_criteria
		WHERE is_active = TRUE
		ORDER BY id`
)

// loadCatalog reads the active lender catalog from Postgres and assembles the
// lender -> program -> criteria tree.
func loadCatalog(ctx context.Context, db *sql.DB) ([]models.Lender, error) {
	lenders, lenderIndex, err := loadLenders(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load lenders: %w", err)
	}

	programIndex, err := loadPrograms(ctx, db, lenders, lenderIndex)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	if err := loadCriteria(ctx, db, programIndex); err != nil {
		return nil, fmt.Errorf("load criteria: %w", err)
	}

	return lenders, nil
}

func loadLenders(ctx context.Context, db *sql.DB) ([]models.Lender, map[int64]int, error) {
	rows, err := db.QueryContext(ctx, queryActiveLenders)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var lenders []models.Lender
	index := make(map[int64]int)
	for rows.Next() {
		var l models.Lender
		if err := rows.Scan(&l.ID, &l.Name, &l.DisplayName, &l.IsActive); err != nil {
			return nil, nil, err
		}
		index[l.ID] = len(lenders)
		lenders = append(lenders, l)
	}
	return lenders, index, rows.Err()
}

func loadPrograms(ctx context.Context, db *sql.DB, lenders []models.Lender, lenderIndex map[int64]int) (map[int64]*models.LenderProgram, error) {
	rows, err := db.QueryContext(ctx, queryActivePrograms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programIndex := make(map[int64]*models.LenderProgram)
	for rows.Next() {
		var p models.LenderProgram
		if err := rows.Scan(&p.ID, &p.LenderID, &p.Name, &p.IsActive, &p.Priority); err != nil {
			return nil, err
		}
		i, ok := lenderIndex[p.LenderID]
		if !ok {
			// Program of an inactive lender; skip.
			continue
		}
		lenders[i].Programs = append(lenders[i].Programs, p)
		programIndex[p.ID] = &lenders[i].Programs[len(lenders[i].Programs)-1]
	}
	return programIndex, rows.Err()
}

func loadCriteria(ctx context.Context, db *sql.DB, programIndex map[int64]*models.LenderProgram) error {
	rows, err := db.QueryContext(ctx, queryActiveCriteria)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c          models.PolicyCriterion
			listValues []byte
		)
		if err := rows.Scan(&c.ID, &c.ProgramID, &c.Type, &c.Name, &c.Operator,
			&c.NumericValue, &c.NumericValueMin, &c.NumericValueMax,
			&c.StringValue, &listValues, &c.IsRequired, &c.Weight, &c.FailureMessage, &c.IsActive); err != nil {
			return err
		}
		if len(listValues) > 0 {
			if err := json.Unmarshal(listValues, &c.ListValues); err != nil {
				return fmt.Errorf("malformed list_values for criterion %d: %w", c.ID, err)
			}
		}
		program, ok := programIndex[c.ProgramID]
		if !ok {
			continue
		}
		program.Criteria = append(program.Criteria, c)
	}
	return rows.Err()
}

// persistResults replaces an application's prior match results with the new
// run, atomically.
func persistResults(ctx context.Context, db *sql.DB, runID string, applicationID int64, env *underwriting.ResultEnvelope, startedAt time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO underwriting_runs (workflow_run_id, application_id, status, started_at, total_lenders_evaluated, eligible_lenders)
		VALUES ($1, $2, 'EVALUATED', $3, $4, $5)`,
		runID, applicationID, startedAt, env.TotalPrograms, env.EligibleCount); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_results WHERE application_id = $1`, applicationID); err != nil {
		return fmt.Errorf("clear previous results: %w", err)
	}

	for _, bucket := range [][]underwriting.ProgramMatchResult{env.Eligible, env.NeedsReview, env.Ineligible} {
		for _, result := range bucket {
			var matchID int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO match_results (application_id, run_id, lender_id, program_id, status, fit_score, summary, recommendation, criteria_met, criteria_failed, criteria_total, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
				RETURNING id`,
				applicationID, runID, result.LenderID, result.ProgramID, string(result.Status),
				result.FitScore, result.Summary, result.Recommendation,
				result.CriteriaMet, result.CriteriaFailed, result.CriteriaTotal).Scan(&matchID)
			if err != nil {
				return fmt.Errorf("insert match result: %w", err)
			}

			for _, eval := range result.CriteriaResults {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO criteria_evaluations (match_result_id, criteria_id, criteria_type, criteria_name, passed, is_required, expected_value, actual_value, explanation)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
					matchID, eval.CriterionID, string(eval.Type), eval.Name, eval.Passed,
					eval.IsRequired, eval.ExpectedValue, eval.ActualValue, eval.Explanation); err != nil {
					return fmt.Errorf("insert criteria evaluation: %w", err)
				}
			}
		}
	}

	return tx.Commit()
}
