// test/e2e/e2e_test.go
//
// End-to-end suite against real services (Zeebe, Postgres, Redis,
// Elasticsearch). Gated behind E2E_TESTS=true so unit runs stay hermetic:
//
//	E2E_TESTS=true go test ./test/e2e/...
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"underwriting-workers/internal/common/config"
	"underwriting-workers/internal/common/database"
	"underwriting-workers/internal/common/logger"

	derivefeatures "underwriting-workers/internal/workers/underwriting/derive-features"
	evaluatelenders "underwriting-workers/internal/workers/underwriting/evaluate-lenders"
	finalizeresults "underwriting-workers/internal/workers/underwriting/finalize-results"
	indexmatchresults "underwriting-workers/internal/workers/underwriting/index-match-results"
	sendnotification "underwriting-workers/internal/workers/underwriting/send-notification"
	validateapplication "underwriting-workers/internal/workers/underwriting/validate-application"
)

const seededApplicationID = 9001

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger

	// Carried between pipeline stages so finalize/index run against the run
	// the evaluation stage actually produced.
	lastRunID string
	lastEval  *evaluatelenders.Output
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") != "true" {
		fmt.Println("E2E_TESTS not set, skipping end-to-end suite")
		os.Exit(0)
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Zeebe: %v", err))
	}

	zapLog, _ = zap.NewProduction()

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestFullPipeline(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Everything runs against the local compose stack.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	assertAllServicesConnectivity(t, cfg)
	createDatabaseTables(t, cfg)
	deployAllBPMN(t)
	testAllWorkers(t, cfg, zapLog)
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("checking service connectivity")

	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "postgres connection failed")
	assert.NoError(t, db.Ping(context.Background()), "postgres ping failed")
	db.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "redis client creation failed")
	assert.NoError(t, rdb.Ping(context.Background()), "redis ping failed")
	rdb.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Database.Elasticsearch.GetURL()},
	})
	require.NoError(t, err, "elasticsearch client creation failed")
	res, err := es.Info()
	require.NoError(t, err, "elasticsearch info request failed")
	assert.False(t, res.IsError(), "elasticsearch returned error")
	res.Body.Close()

	_, err = zeebeClient.NewTopologyCommand().Send(context.Background())
	assert.NoError(t, err, "zeebe topology request failed")
}

// createDatabaseTables provisions the underwriting schema and a known
// application plus a small lender catalog to evaluate it against.
func createDatabaseTables(t *testing.T, cfg *config.Config) {
	t.Log("creating database tables and inserting test data")

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.GetDB()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS loan_applications (
			id BIGSERIAL PRIMARY KEY,
			reference_id VARCHAR(100) UNIQUE NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'DRAFT',
			business JSONB,
			guarantor JSONB,
			business_credit JSONB,
			loan_request JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			submitted_at TIMESTAMP,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lenders (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lender_programs (
			id BIGSERIAL PRIMARY KEY,
			lender_id BIGINT REFERENCES lenders(id),
			name VARCHAR(255) NOT NULL,
			is_active BOOLEAN DEFAULT true,
			priority INTEGER DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(lender_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS policy_criteria (
			id BIGSERIAL PRIMARY KEY,
			program_id BIGINT REFERENCES lender_programs(id),
			criteria_type VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			operator VARCHAR(20) NOT NULL,
			numeric_value DOUBLE PRECISION,
			numeric_value_min DOUBLE PRECISION,
			numeric_value_max DOUBLE PRECISION,
			string_value VARCHAR(255),
			list_values JSONB,
			is_required BOOLEAN DEFAULT true,
			weight DOUBLE PRECISION DEFAULT 1,
			failure_message TEXT,
			is_active BOOLEAN DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS underwriting_runs (
			id BIGSERIAL PRIMARY KEY,
			workflow_run_id VARCHAR(100) UNIQUE NOT NULL,
			application_id BIGINT NOT NULL,
			status VARCHAR(50) NOT NULL,
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			total_lenders_evaluated INTEGER DEFAULT 0,
			eligible_lenders INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS match_results (
			id BIGSERIAL PRIMARY KEY,
			application_id BIGINT NOT NULL,
			run_id VARCHAR(100) NOT NULL,
			lender_id BIGINT NOT NULL,
			program_id BIGINT NOT NULL,
			status VARCHAR(50) NOT NULL,
			fit_score DOUBLE PRECISION NOT NULL,
			summary TEXT,
			recommendation TEXT,
			criteria_met INTEGER DEFAULT 0,
			criteria_failed INTEGER DEFAULT 0,
			criteria_total INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS criteria_evaluations (
			id BIGSERIAL PRIMARY KEY,
			match_result_id BIGINT REFERENCES match_results(id) ON DELETE CASCADE,
			criteria_id BIGINT,
			criteria_type VARCHAR(100),
			criteria_name VARCHAR(255),
			passed BOOLEAN,
			is_required BOOLEAN,
			expected_value TEXT,
			actual_value TEXT,
			explanation TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			t.Logf("warning: failed to create table: %v", err)
		}
	}

	testData := []string{
		`INSERT INTO loan_applications (id, reference_id, status, business, guarantor, business_credit, loan_request)
		 VALUES (9001, 'APP-E2E-9001', 'PROCESSING',
			'{"legalName": "Lone Star Hauling LLC", "state": "TX", "industry": "Transportation", "monthsInBusiness": 48, "annualRevenue": 600000}',
			'{"firstName": "Dana", "lastName": "Whitfield", "ficoScore": 700, "hasBankruptcy": false, "hasForeclosure": false, "hasOpenTaxLiens": false, "hasJudgments": false, "hasCollections": false}',
			'{"paynetScore": 720}',
			'{"requestedAmount": 100000, "termMonths": 60, "equipmentType": "Excavator", "equipmentCost": 120000, "equipmentYear": 2022, "downPaymentAmount": 15000}')
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO lenders (id, name, display_name, is_active)
		 VALUES (9101, 'summit-e2e', 'Summit Capital (E2E)', true)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO lender_programs (id, lender_id, name, is_active, priority)
		 VALUES (9201, 9101, 'Core Program', true, 1)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO policy_criteria (id, program_id, criteria_type, name, operator, numeric_value, is_required, weight, is_active)
		 VALUES (9301, 9201, 'fico_score', 'Minimum FICO', 'gte', 650, true, 2, true)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO policy_criteria (id, program_id, criteria_type, name, operator, numeric_value, is_required, weight, is_active)
		 VALUES (9302, 9201, 'down_payment_percent', 'Preferred Down Payment', 'gte', 10, false, 1, true)
		 ON CONFLICT (id) DO NOTHING`,
	}

	for _, query := range testData {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			t.Logf("warning: failed to insert test data: %v", err)
		}
	}
}

func deployAllBPMN(t *testing.T) {
	t.Log("deploying BPMN files")

	possiblePaths := []string{"bpmn", "../bpmn", "../../bpmn"}

	var bpmnDir string
	var files []os.DirEntry
	for _, path := range possiblePaths {
		if entries, err := os.ReadDir(path); err == nil {
			bpmnDir = path
			files = entries
			break
		}
	}
	if bpmnDir == "" {
		t.Log("BPMN directory not found, skipping deployment")
		return
	}

	deployed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".bpmn") {
			continue
		}
		path := fmt.Sprintf("%s/%s", bpmnDir, f.Name())
		if _, err := zeebeClient.NewDeployResourceCommand().AddResourceFile(path).Send(context.Background()); err != nil {
			t.Logf("warning: failed to deploy %s: %v", f.Name(), err)
			continue
		}
		deployed++
	}
	t.Logf("deployed %d BPMN files", deployed)
}

// testAllWorkers drives every worker's Execute path in pipeline order, so each
// stage consumes what the previous one produced, the way a live process
// instance would hand variables along.
func testAllWorkers(t *testing.T, cfg *config.Config, log *zap.Logger) {
	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()
	db := dbClient.GetDB()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Database.Elasticsearch.GetURL()},
	})
	require.NoError(t, err)

	rdbClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdbClient.Close()
	rdb := rdbClient.GetClient()

	testCases := []struct {
		name   string
		testFn func(*testing.T, *config.Config, *zap.Logger, *sql.DB, *elasticsearch.Client, *redis.Client)
	}{
		{"validate-application", testValidateApplication},
		{"derive-features", testDeriveFeatures},
		{"evaluate-lenders", testEvaluateLenders},
		{"finalize-results", testFinalizeResults},
		{"index-match-results", testIndexMatchResults},
		{"send-notification", testSendNotification},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.testFn(t, cfg, log, db, es, rdb)
		})
	}
}

func testValidateApplication(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := validateapplication.NewHandler(&validateapplication.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &validateapplication.Input{
		ApplicationID: seededApplicationID,
	})
	require.NoError(t, err)
	assert.True(t, output.Valid)
	require.NotNil(t, output.Application)
	assert.Equal(t, "APP-E2E-9001", output.Application.ReferenceID)

	// Unknown applications are a business error, not a silent pass.
	_, err = handler.Execute(context.Background(), &validateapplication.Input{ApplicationID: 999999999})
	assert.Error(t, err)
}

func testDeriveFeatures(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	loader := validateapplication.NewHandler(&validateapplication.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewZapAdapter(log))
	loaded, err := loader.Execute(context.Background(), &validateapplication.Input{ApplicationID: seededApplicationID})
	require.NoError(t, err)

	handler := derivefeatures.NewHandler(&derivefeatures.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &derivefeatures.Input{
		ApplicationID: seededApplicationID,
		Application:   loaded.Application,
	})
	require.NoError(t, err)
	require.NotNil(t, output.Application)

	// 15000 down on a 100000 request.
	require.NotNil(t, output.Derived.DownPaymentPercent)
	assert.Equal(t, 15.0, *output.Derived.DownPaymentPercent)
	require.NotNil(t, output.Derived.YearsInBusiness)
	assert.Equal(t, 4.0, *output.Derived.YearsInBusiness)
}

func testEvaluateLenders(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	loader := validateapplication.NewHandler(&validateapplication.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewZapAdapter(log))
	loaded, err := loader.Execute(context.Background(), &validateapplication.Input{ApplicationID: seededApplicationID})
	require.NoError(t, err)

	handler := evaluatelenders.NewHandler(&evaluatelenders.Config{
		CacheTTL:    time.Minute,
		MaxParallel: 4,
		Timeout:     30 * time.Second,
	}, db, rdb, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &evaluatelenders.Input{
		ApplicationID: seededApplicationID,
		Application:   loaded.Application,
	})
	require.NoError(t, err)
	require.NotEmpty(t, output.RunID)
	assert.GreaterOrEqual(t, output.TotalPrograms, 1)
	assert.Equal(t, output.TotalPrograms, output.EligibleCount+output.NeedsReviewCount+output.IneligibleCount)

	// FICO 700 and 15% down clear the seeded Core Program.
	assert.GreaterOrEqual(t, output.EligibleCount, 1)
	require.NotNil(t, output.BestMatch)

	// A second run against the same application replaces its results.
	rerun, err := handler.Execute(context.Background(), &evaluatelenders.Input{
		ApplicationID: seededApplicationID,
		Application:   loaded.Application,
	})
	require.NoError(t, err)
	assert.NotEqual(t, output.RunID, rerun.RunID)

	lastRunID = rerun.RunID
	lastEval = rerun
}

func testFinalizeResults(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	if lastRunID == "" {
		t.Skip("no evaluation run to finalize")
	}

	handler := finalizeresults.NewHandler(&finalizeresults.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &finalizeresults.Input{
		ApplicationID:    seededApplicationID,
		RunID:            lastRunID,
		TotalPrograms:    lastEval.TotalPrograms,
		EligibleCount:    lastEval.EligibleCount,
		NeedsReviewCount: lastEval.NeedsReviewCount,
		IneligibleCount:  lastEval.IneligibleCount,
		BestMatch:        lastEval.BestMatch,
	})
	require.NoError(t, err)
	assert.Equal(t, "MATCHED", output.FinalStatus)
	assert.Contains(t, output.Summary, "Summit Capital (E2E)")

	// The run row must be closed out.
	var status string
	err = db.QueryRowContext(context.Background(),
		`SELECT status FROM underwriting_runs WHERE workflow_run_id = $1`, lastRunID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status)
}

func testIndexMatchResults(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	if lastRunID == "" {
		t.Skip("no evaluation run to index")
	}

	handler := indexmatchresults.NewHandler(&indexmatchresults.Config{
		IndexName: "match-results-e2e",
		Timeout:   15 * time.Second,
	}, db, es, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &indexmatchresults.Input{
		ApplicationID: seededApplicationID,
		RunID:         lastRunID,
	})
	require.NoError(t, err)
	assert.Equal(t, "match-results-e2e", output.IndexName)
	assert.GreaterOrEqual(t, output.Indexed, 1)

	// Idempotent: re-indexing the same run upserts the same documents.
	again, err := handler.Execute(context.Background(), &indexmatchresults.Input{
		ApplicationID: seededApplicationID,
		RunID:         lastRunID,
	})
	require.NoError(t, err)
	assert.Equal(t, output.Indexed, again.Indexed)
}

func testSendNotification(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	// Both channels disabled: the worker records the outcome without touching
	// AWS, which is all an e2e run without credentials can verify.
	handler := sendnotification.NewHandler(&sendnotification.Config{
		EmailEnabled:    false,
		SMSEnabled:      false,
		SMSFitThreshold: 80.0,
		Timeout:         10 * time.Second,
	}, nil, nil, logger.NewZapAdapter(log))

	fit := 92.5
	output, err := handler.Execute(context.Background(), &sendnotification.Input{
		ApplicationID:     seededApplicationID,
		RunID:             lastRunID,
		FinalStatus:       "MATCHED",
		Summary:           "Evaluated 1 program: 1 eligible.",
		RecipientEmail:    "applicant@example.com",
		RecipientPhone:    "+15550100",
		BestMatchFitScore: &fit,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.NotificationID)
	assert.False(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Empty(t, output.Channels)
}

func BenchmarkHandler_EvaluateLenders(b *testing.B) {
	cfg, _ := config.Load()
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	dbClient, _ := database.NewPostgres(cfg.Database.Postgres)
	defer dbClient.Close()
	db := dbClient.GetDB()

	rdbClient, _ := database.NewRedis(cfg.Database.Redis)
	defer rdbClient.Close()
	rdb := rdbClient.GetClient()

	log := logger.NewStructured("info", "json")

	loader := validateapplication.NewHandler(&validateapplication.Config{
		Timeout: 10 * time.Second,
	}, db, log)
	loaded, err := loader.Execute(context.Background(), &validateapplication.Input{ApplicationID: seededApplicationID})
	if err != nil {
		b.Fatalf("load application: %v", err)
	}

	handler := evaluatelenders.NewHandler(&evaluatelenders.Config{
		CacheTTL:    time.Minute,
		MaxParallel: 4,
		Timeout:     30 * time.Second,
	}, db, rdb, log)

	input := &evaluatelenders.Input{
		ApplicationID: seededApplicationID,
		Application:   loaded.Application,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_ValidateApplication(b *testing.B) {
	cfg, _ := config.Load()
	cfg.Database.Postgres.Host = "localhost"

	dbClient, _ := database.NewPostgres(cfg.Database.Postgres)
	defer dbClient.Close()
	db := dbClient.GetDB()

	handler := validateapplication.NewHandler(&validateapplication.Config{
		Timeout: 10 * time.Second,
	}, db, logger.NewStructured("info", "json"))

	input := &validateapplication.Input{ApplicationID: seededApplicationID}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
