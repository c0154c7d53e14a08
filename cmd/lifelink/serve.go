package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifelink/internal/alert"
	"lifelink/internal/db"
	"lifelink/internal/emergency"
	"lifelink/internal/matching"
	"lifelink/internal/metrics"
	"lifelink/internal/mirror"
	"lifelink/internal/registration"
	"lifelink/internal/server"
	"lifelink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cCtx.Bool("migrate") {
		if err := migrate(ctx, pool, config, logger); err != nil {
			return err
		}
	}

	m := metrics.New()

	donorRepo := store.NewDonorRepository(pool)
	patientRepo := store.NewPatientRepository(pool)
	requestRepo := store.NewEmergencyRequestRepository(pool)
	alertRepo := store.NewAlertRepository(pool)

	mirrorFile, err := newMirror(ctx, config, logger, m)
	if err != nil {
		return err
	}
	logger.WithField("path", mirrorFile.Path()).Info("workbook mirror ready")

	alerting, err := newAlerting(ctx, config, logger)
	if err != nil {
		return err
	}
	defer alerting.Close()

	requests := emergency.NewService(logger, requestRepo, patientRepo, m)

	registrations := registration.NewService(
		logger,
		donorRepo,
		patientRepo,
		requests,
		mirrorFile,
		alerting.passcodes,
		registration.Options{
			OTPLength: config.OTPLength,
			OTPTTL:    time.Duration(config.OTPTTLMinutes) * time.Minute,
		},
	)

	matcher := matching.NewMatcher(
		logger,
		patientRepo,
		donorRepo,
		m,
		time.Duration(config.MatchQueryTimeoutMS)*time.Millisecond,
	)

	dispatcher := alert.NewDispatcher(
		logger,
		donorRepo,
		patientRepo,
		alertRepo,
		alerting.deduper,
		m,
		alertOptions(config),
		alerting.channels...,
	)
	logger.WithField("channels", dispatcher.Channels()).Info("alert channels ready")

	srv := server.New(config, logger, m, server.Dependencies{
		Registration: registrations,
		Matcher:      matcher,
		Alerts:       dispatcher,
		Requests:     requests,
		Mirror:       mirrorFile,
		ImportStores: mirror.Stores{
			Donors:   donorRepo,
			Patients: patientRepo,
		},
	})

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
