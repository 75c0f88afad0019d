package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/subtitly/teams-service/internal/api"
	"github.com/subtitly/teams-service/internal/auth"
	"github.com/subtitly/teams-service/internal/config"
	"github.com/subtitly/teams-service/internal/db"
	"github.com/subtitly/teams-service/internal/notify"
	"github.com/subtitly/teams-service/internal/permissions"
	"github.com/subtitly/teams-service/internal/repository"
	"github.com/subtitly/teams-service/internal/service"
	"github.com/subtitly/teams-service/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

func main() {
	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	auth.TokenSecretKey = cfg.TokenSecret

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	log.Info("database connection established")

	if err = runMigrations(cfg); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	log.Info("migrations applied")

	transactor := db.NewPgxTransactor(pool)

	teamRepo := repository.NewPgxTeamRepository(pool)
	memberRepo := repository.NewPgxMemberRepository(pool)
	userRepo := repository.NewPgxUserRepository(pool)
	projectRepo := repository.NewPgxProjectRepository(pool)
	inviteRepo := repository.NewPgxInviteRepository(pool)
	reportRepo := repository.NewPgxReportRepository(pool)

	gate := permissions.NewRoleGate(memberRepo)

	var deliverer notify.Deliverer
	if cfg.NotificationsEnabled() {
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
		deliverer = notify.NewEmailDeliverer(inviteRepo, userRepo, teamRepo, dialer, cfg.MailFrom)
	} else {
		log.Warn("SMTP not configured, invitation notices are logged only")
		deliverer = notify.NewLogDeliverer(inviteRepo, log)
	}

	notifier := notify.NewQueue(deliverer, log, cfg.NotifyQueueSize)
	go notifier.Start(ctx)

	teams := service.NewTeamService(transactor).
		WithTeamRepo(teamRepo).
		WithMemberRepo(memberRepo).
		WithGate(gate)
	members := service.NewMemberService(transactor).
		WithTeamRepo(teamRepo).
		WithMemberRepo(memberRepo).
		WithUserRepo(userRepo).
		WithGate(gate)
	invites := service.NewInviteService(transactor).
		WithTeamRepo(teamRepo).
		WithMemberRepo(memberRepo).
		WithUserRepo(userRepo).
		WithInviteRepo(inviteRepo).
		WithGate(gate).
		WithNotifier(notifier)
	projects := service.NewProjectService(transactor).
		WithTeamRepo(teamRepo).
		WithMemberRepo(memberRepo).
		WithProjectRepo(projectRepo).
		WithGate(gate)
	reports := service.NewReportService().
		WithInviteRepo(inviteRepo).
		WithReportRepo(reportRepo)

	healthChecker := api.MustNewHealthChecker(health.Config{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})

	e := echo.New()

	handler := api.NewHandler(log).
		WithTeamService(teams).
		WithMemberService(members).
		WithInviteService(invites).
		WithProjectService(projects).
		WithReportService(reports).
		WithHealthChecker(healthChecker)

	handler.RegisterRoutes(e)

	log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err = e.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "failed to init migrations")
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}
