package main

import (
	"context"
	"fmt"
	"time"

	"lifelink/internal/alert"
	"lifelink/internal/metrics"
	"lifelink/internal/mirror"
	"lifelink/internal/registration"
	"lifelink/internal/storage"
	"lifelink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sirupsen/logrus"
)

// newMirror opens the workbook mirror, archiving to S3 when a bucket is
// configured.
func newMirror(ctx context.Context, cfg *types.Config, logger *logrus.Logger, m *metrics.Metrics) (*mirror.Mirror, error) {
	var archiver mirror.Archiver

	if cfg.ArchiveBucket != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		archiver = storage.NewS3Archive(s3.NewFromConfig(awsConfig), cfg.ArchiveBucket, cfg.ArchivePrefix)
	}

	return mirror.New(cfg.MirrorPath, logger, archiver, m), nil
}

type alerting struct {
	channels  []alert.Channel
	passcodes registration.PasscodeSender
	deduper   alert.Deduper
	closers   []func() error
}

func (a *alerting) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// newAlerting builds every alert channel the configuration enables.
func newAlerting(ctx context.Context, cfg *types.Config, logger *logrus.Logger) (*alerting, error) {
	a := new(alerting)

	if cfg.SMTPEnabled() {
		email := alert.NewEmailChannel(alert.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		a.channels = append(a.channels, email)
		a.passcodes = email
	} else {
		logger.Warn("SMTP not configured, passcodes and email alerts are disabled")
	}

	if cfg.TwilioEnabled() {
		a.channels = append(a.channels, alert.NewSMSChannel(alert.SMSConfig{
			AccountSID:  cfg.TwilioAccountSID,
			AuthToken:   cfg.TwilioAuthToken,
			FromNumber:  cfg.TwilioPhoneNumber,
			CountryCode: cfg.SMSCountryCode,
		}))
	}

	if cfg.AlertQueueName != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}

		client := sqs.NewFromConfig(awsConfig)
		queueURL, err := alert.ResolveQueueURL(ctx, client, cfg.AlertQueueName)
		if err != nil {
			return nil, err
		}
		a.channels = append(a.channels, alert.NewQueueChannel(client, queueURL))
	}

	if cfg.RedisURL != "" {
		client, err := alert.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.deduper = alert.NewRedisDeduper(client)
		a.closers = append(a.closers, client.Close)
	}

	return a, nil
}

func alertOptions(cfg *types.Config) alert.Options {
	return alert.Options{
		Timeout:      time.Duration(cfg.AlertTimeoutMS) * time.Millisecond,
		DedupeWindow: time.Duration(cfg.AlertDedupeMin) * time.Minute,
	}
}
