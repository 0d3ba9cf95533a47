// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"underwriting-workers/internal/common/aws"
	"underwriting-workers/internal/common/camunda"
	"underwriting-workers/internal/common/config"
	"underwriting-workers/internal/common/database"
	"underwriting-workers/internal/common/logger"
	"underwriting-workers/internal/common/observability"

	df "underwriting-workers/internal/workers/underwriting/derive-features"
	el "underwriting-workers/internal/workers/underwriting/evaluate-lenders"
	fr "underwriting-workers/internal/workers/underwriting/finalize-results"
	im "underwriting-workers/internal/workers/underwriting/index-match-results"
	sn "underwriting-workers/internal/workers/underwriting/send-notification"
	va "underwriting-workers/internal/workers/underwriting/validate-application"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting underwriting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS notification clients ---
	// Only built when a notification channel is switched on, so local
	// development needs no AWS credentials.
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.Email.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}

	// --- Register the underwriting pipeline workers ---

	if cfg.Workers[va.TaskType].Enabled {
		handler := va.NewHandler(
			&va.Config{
				Timeout: time.Duration(cfg.Workers[va.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, va.TaskType, cfg.Workers[va.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[df.TaskType].Enabled {
		handler := df.NewHandler(
			&df.Config{
				Timeout: time.Duration(cfg.Workers[df.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, df.TaskType, cfg.Workers[df.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[el.TaskType].Enabled {
		handler := el.NewHandler(
			&el.Config{
				CacheTTL:    time.Duration(cfg.Underwriting.CatalogCacheTTL) * time.Second,
				MaxParallel: cfg.Underwriting.MaxParallelEvaluations,
				Timeout:     time.Duration(cfg.Workers[el.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, el.TaskType, cfg.Workers[el.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[fr.TaskType].Enabled {
		handler := fr.NewHandler(
			&fr.Config{
				Timeout: time.Duration(cfg.Workers[fr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, fr.TaskType, cfg.Workers[fr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[im.TaskType].Enabled {
		handler := im.NewHandler(
			&im.Config{
				IndexName: cfg.Underwriting.MatchResultsIndex,
				Timeout:   time.Duration(cfg.Workers[im.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, esClient.Client, log,
		)
		startWorker(zeebeClient, im.TaskType, cfg.Workers[im.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sn.TaskType].Enabled {
		handler := sn.NewHandler(
			&sn.Config{
				EmailEnabled:    cfg.Notifications.Email.Enabled,
				FromEmail:       cfg.Notifications.Email.FromEmail,
				SMSEnabled:      cfg.Notifications.SMS.Enabled,
				SMSFitThreshold: cfg.Notifications.SMS.FitThreshold,
				Timeout:         time.Duration(cfg.Workers[sn.TaskType].Timeout) * time.Millisecond,
			},
			sesClient, snsClient, log,
		)
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All underwriting workers registered")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range activeWorkers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

var activeWorkers []*camunda.CamundaWorker

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewWorker(client, taskType, wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond, handlerFunc, log)
	activeWorkers = append(activeWorkers, w)
}
