package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/noah-isme/reporting-engine/api/swagger"
	"github.com/noah-isme/reporting-engine/internal/handler"
	"github.com/noah-isme/reporting-engine/internal/idcodec"
	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/internal/repository"
	"github.com/noah-isme/reporting-engine/internal/service"
	"github.com/noah-isme/reporting-engine/pkg/cache"
	"github.com/noah-isme/reporting-engine/pkg/config"
	"github.com/noah-isme/reporting-engine/pkg/database"
	"github.com/noah-isme/reporting-engine/pkg/export"
	"github.com/noah-isme/reporting-engine/pkg/jobs"
	"github.com/noah-isme/reporting-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/reporting-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/reporting-engine/pkg/middleware/requestid"
	"github.com/noah-isme/reporting-engine/pkg/storage"
)

// @title Reporting Engine API
// @version 0.1.0
// @description Student quiz reports and live quiz statistics
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	dynamo, err := database.NewDynamoDB(ctx, cfg.DynamoDB)
	if err != nil {
		logr.Sugar().Fatalw("failed to init dynamodb", "error", err)
	}

	mongoClient, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect mongo", "error", err)
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck

	readiness := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
		"dynamodb": func(ctx context.Context) error {
			_, err := dynamo.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.DynamoDB.ReportsTable)})
			return err
		},
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.ReportCache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, "reporting")
			defer cacheRepo.Close() //nolint:errcheck
			readiness["redis"] = cacheRepo.Ping
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.ReportCache.TTL, logr, true)
		}
	}

	recordRepo := repository.NewSectionRecordRepository(dynamo, cfg.DynamoDB.ReportsTable, cfg.DynamoDB.UserIndex, logr)
	formRepo := repository.NewFormResponseRepository(dynamo, cfg.DynamoDB.FormResponsesTable)
	chapterRepo := repository.NewChapterMetadataRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	quizDB := mongoClient.Database(cfg.Mongo.QuizDB)
	quizRepo := repository.NewQuizRepository(quizDB.Collection("quizzes"))
	activityRepo := repository.NewActivityRepository(quizDB.Collection("sessions"))

	chapters := service.LoadChapterMetadata(ctx, chapterRepo, logr)
	qualificationSvc := service.NewQualificationService(nil, metricsSvc, cfg.Timeouts.Enrichment, logr)
	if cfg.BigQuery.Enabled {
		bq, err := database.NewBigQuery(ctx, cfg.BigQuery)
		if err != nil {
			logr.Sugar().Warnw("bigquery unavailable, qualification defaults apply", "error", err)
		} else {
			defer bq.Close() //nolint:errcheck
			qualificationRepo, err := repository.NewQualificationRepository(bq, cfg.BigQuery.QualificationTable)
			if err != nil {
				logr.Sugar().Fatalw("invalid qualification table", "error", err)
			}
			qualificationSvc = service.NewQualificationService(qualificationRepo, metricsSvc, cfg.Timeouts.Enrichment, logr)
		}
	}

	pdfExporter := export.NewPDFExporter()
	reportSvc := service.NewReportService(recordRepo, qualificationSvc, chapters, cacheSvc, metricsSvc, pdfExporter, logr, service.ReportServiceConfig{
		StoreTimeout:  cfg.Timeouts.Store,
		CacheTTL:      cfg.ReportCache.TTL,
		QuizEngineURL: cfg.QuizEngine.BaseURL,
		QuizAPIKey:    cfg.QuizEngine.APIKey,
	})

	var liveStatsSvc *service.LiveStatsService
	if cfg.Firestore.Credentials != "" {
		firestoreClient, err := database.NewFirestore(ctx, cfg.Firestore)
		if err != nil {
			logr.Sugar().Fatalw("failed to init firestore", "error", err)
		}
		defer firestoreClient.Close()
		sessionRepo := repository.NewSessionRepository(firestoreClient, cfg.Firestore.SessionsCollection)
		liveStatsSvc = service.NewLiveStatsService(quizRepo, activityRepo, sessionRepo, idcodec.ObjectIDCodec{}, validate, metricsSvc, cfg.Timeouts.Store, logr)
	} else {
		logr.Warn("firestore credentials missing, session live reports disabled")
		liveStatsSvc = service.NewLiveStatsService(quizRepo, activityRepo, nil, idcodec.ObjectIDCodec{}, validate, metricsSvc, cfg.Timeouts.Store, logr)
	}

	formSvc := service.NewFormResponseService(formRepo, metricsSvc, cfg.Timeouts.Store, logr)

	localStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(recordRepo, localStorage, signer, metricsSvc, service.ExportConfig{
		APIPrefix:    cfg.APIPrefix,
		ResultTTL:    cfg.Exports.SignedURLTTL,
		StoreTimeout: cfg.Timeouts.Store,
	}, logr, export.NewCSVExporter(), pdfExporter, export.NewXLSXExporter())

	var (
		exportJobSvc *service.ExportJobService
		exportQueue  *jobs.Queue
	)
	if cfg.Exports.Enabled {
		worker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Exports.WorkerConcurrency,
			MaxRetries:  cfg.Exports.WorkerRetries,
			Logger:      logr,
			OnExhausted: worker.OnExhausted,
		})
		exportQueue.Start(ctx)
		metricsSvc.TrackQueue("exports", exportQueue.Len)

		exportJobSvc = service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)
	reportHandler := handler.NewReportHandler(reportSvc, cacheSvc.Enabled())
	liveReportHandler := handler.NewLiveReportHandler(liveStatsSvc, exportSvc)
	formHandler := handler.NewFormResponseHandler(formSvc)
	futuresHandler := handler.NewFuturesHandler(cfg.Futures)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth.Enabled {
		authSvc := service.NewAuthService(&http.Client{Timeout: cfg.Auth.Timeout}, logr, service.AuthConfig{
			VerifyURL: cfg.Auth.VerifyURL,
			Timeout:   cfg.Auth.Timeout,
		})
		api.Use(middleware.Auth(authSvc))
	}

	api.GET("/metrics/snapshot", metricsHandler.Snapshot)
	api.GET("/futures/config", futuresHandler.Config)

	reports := api.Group("/reports")
	reports.GET("/student_reports/:session_id/:user_id", reportHandler.StudentReport)
	reports.GET("/student_reports/:session_id/:user_id/pdf", reportHandler.StudentReportPDF)
	reports.GET("/students/:user_id", reportHandler.StudentTests)
	reports.GET("/live_quiz_report/:quiz_id", liveReportHandler.QuizReport)
	reports.GET("/live_session_report/:session_id", liveReportHandler.SessionReport)
	reports.GET("/form_responses/:session_id/:user_id", formHandler.Report)

	if exportJobSvc != nil {
		exportHandler := handler.NewExportHandler(exportJobSvc)
		api.POST("/exports", exportHandler.Create)
		api.GET("/exports/:id", exportHandler.Status)
		// Signed links carry their own authorisation.
		r.GET(cfg.APIPrefix+"/export/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
