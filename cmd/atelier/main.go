package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/app"
	"github.com/atelier-erp/atelier-erp/internal/auth"
	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/expenses"
	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/platform/cache"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/projects"
	"github.com/atelier-erp/atelier-erp/internal/schedules"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/tasks"
	"github.com/atelier-erp/atelier-erp/internal/timelogs"
	"github.com/atelier-erp/atelier-erp/internal/users"
	"github.com/atelier-erp/atelier-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("job client unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
	}
	financialApprovals := jobs.NewApprovalRefreshHook(approvalRecorder, jobClient, logger)

	projectsRepo := projects.NewRepository(dbpool)
	tasksRepo := tasks.NewRepository(dbpool)
	schedulesRepo := schedules.NewRepository(dbpool)
	timeLogsRepo := timelogs.NewRepository(dbpool)
	expensesRepo := expenses.NewRepository(dbpool)
	usersRepo := users.NewRepository(dbpool)
	catalogRepo := catalog.NewRepository(dbpool)

	stores := map[abac.Resource]abac.Store{
		abac.ResourceProjects:  projectsRepo,
		abac.ResourceTasks:     tasksRepo,
		abac.ResourceSchedules: schedulesRepo,
		abac.ResourceTimeLogs:  timeLogsRepo,
		abac.ResourceExpenses:  expensesRepo,
		abac.ResourceUsers:     usersRepo,
	}
	for resource, store := range catalogRepo.Stores() {
		stores[resource] = store
	}

	gate := abac.NewGate(abac.DefaultPolicies(), abac.NewResolver(stores), logger,
		func(ctx context.Context, p abac.Principal, resource abac.Resource, action abac.Action, targetID string, allowed bool) {
			err := auditLogger.Record(ctx, shared.AuditLog{
				ActorID:  p.ID,
				Action:   string(action),
				Entity:   string(resource),
				EntityID: targetID,
				Meta:     map[string]any{"allowed": allowed, "role": string(p.Role)},
			})
			if err != nil {
				logger.Warn("audit record", slog.Any("error", err))
			}
		})

	projectsService := projects.NewService(projectsRepo)
	tasksService := tasks.NewService(tasksRepo, projectsRepo, approvalRecorder)
	schedulesService := schedules.NewService(schedulesRepo, usersRepo)
	timeLogsService := timelogs.NewService(timeLogsRepo, projectsRepo, tasksRepo, financialApprovals)
	expensesService := expenses.NewService(expensesRepo, projectsRepo, financialApprovals)
	usersService := users.NewService(usersRepo)
	catalogService := catalog.NewService(catalogRepo, redisClient, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		AuthHandler:      authHandler,
		ProjectsHandler:  projects.NewHandler(logger, projectsService, gate),
		TasksHandler:     tasks.NewHandler(logger, tasksService, gate),
		SchedulesHandler: schedules.NewHandler(logger, schedulesService, gate),
		TimeLogsHandler:  timelogs.NewHandler(logger, timeLogsService, gate),
		ExpensesHandler:  expenses.NewHandler(logger, expensesService, gate),
		UsersHandler:     users.NewHandler(logger, usersService, gate),
		CatalogHandler:   catalog.NewHandler(logger, catalogService, gate),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
