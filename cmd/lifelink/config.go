package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"lifelink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
)

// loadEnvConfig reads the optional dotenv file and then the environment.
func loadEnvConfig(cCtx *cli.Context) (*types.Config, error) {
	err := godotenv.Load(cCtx.String("env-file"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if c.DefaultRadiusKm <= 0 {
		c.DefaultRadiusKm = 10
	}

	return c, nil
}

// loadConfig is loadEnvConfig for commands that need the database.
func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	c, err := loadEnvConfig(cCtx)
	if err != nil {
		return nil, err
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}
