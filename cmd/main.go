package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/matejak/teap/config"
	"github.com/matejak/teap/internal/api"
	"github.com/matejak/teap/internal/directory"
	"github.com/matejak/teap/internal/groupware"
	"github.com/matejak/teap/internal/mail"
	"github.com/matejak/teap/internal/metrics"
	"github.com/matejak/teap/internal/model"
	"github.com/matejak/teap/internal/service"
	"github.com/matejak/teap/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting application")

	metrics.Init()

	conn, err := ldap.DialURL(cfg.LDAP.URL)
	if err != nil {
		log.Fatal("failed to connect to directory", zap.Error(err))
	}
	defer conn.Close()

	if err = conn.Bind(cfg.LDAP.BindDN, cfg.LDAP.Password); err != nil {
		log.Fatal("failed to bind to directory", zap.Error(err))
	}

	log.Info("directory connection established")

	dir := directory.NewLDAPDirectory(conn, cfg.LDAP.BaseDN)
	folders := groupware.NewNextcloud(cfg.Nextcloud.URL, cfg.Nextcloud.User, cfg.Nextcloud.Password)
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	divisions := config.NewDivisionsFile(cfg.Divisions.File)

	user := service.NewUserService().WithDirectory(dir)
	hierarchy := service.NewHierarchyService().WithDirectory(dir)
	reconcile := service.NewReconcileService().WithDirectory(dir).WithDivisionSource(divisions)
	folder := service.NewFolderService().WithFolders(folders)

	startupCtx := logger.WithLogger(context.Background(), log)
	if missing, svcErr := reconcile.CheckSingletons(startupCtx); svcErr != nil {
		log.Warn("startup consistency check failed", zap.Any("error", svcErr))
	} else if len(missing) > 0 {
		log.Warn("required directory objects missing", zap.Strings("missing", missing))
	}

	healthChecker := api.MustNewHealthChecker(
		health.Config{
			Name:    "directory",
			Timeout: 5 * time.Second,
			Check: func(ctx context.Context) error {
				_, err := dir.GetTeam(ctx, model.TeamEverybodyMachineName)
				if err != nil && !errors.Is(err, directory.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		health.Config{
			Name:    "groupware",
			Timeout: 5 * time.Second,
			Check: func(ctx context.Context) error {
				_, _, err := folders.FindFolder(ctx, service.FranchisesMountpoint)
				return err
			},
		},
	)

	e := echo.New()

	handler := api.NewHandler(log).
		WithUserService(user).
		WithHierarchyService(hierarchy).
		WithReconcileService(reconcile).
		WithFolderService(folder).
		WithMailer(mailer).
		WithPasswordReset(cfg.Auth.ResetSecret, cfg.Auth.ResetExpiry).
		WithHealthChecker(healthChecker)

	handler.RegisterRoutes(e)

	go func() {
		log.Info("server starting", zap.String("addr", cfg.ServerAddr()))
		if err := e.Start(cfg.ServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal("failed to shut down server", zap.Error(err))
	}
}
