package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	tomlrepo "github.com/busmind/stopfinder-cli/internal/adapters/repo/toml"
	chainstore "github.com/busmind/stopfinder-cli/internal/adapters/secrets/chain"
	"github.com/busmind/stopfinder-cli/internal/adapters/stopfinder"
	"github.com/busmind/stopfinder-cli/internal/application"
	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/busmind/stopfinder-cli/internal/ports"
)

const defaultBaseURL = "https://www.mytransfinder.com"

type app struct {
	repo        ports.AccountRepository
	secretStore ports.SecretStore
	clock       ports.Clock
	logger      zerolog.Logger
	baseURL     string
}

func wireApp() (*app, error) {
	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".stopfinder", "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)

	return &app{
		repo:        repo,
		secretStore: secretStore,
		clock:       ports.SystemClock{},
		logger:      logger,
		baseURL:     envOrDefault("SF_BASE_URL", defaultBaseURL),
	}, nil
}

func (a *app) enableDebugLogging() {
	a.logger = a.logger.Level(zerolog.DebugLevel)
}

func (a *app) scheduleSource(account domain.Account, password string) ports.ScheduleSource {
	return stopfinder.New(account.BaseURL, account.Username, password, stopfinder.Options{
		Logger: a.logger,
	})
}

// session loads the stored account, resolves its password, and builds a
// schedule service bound to that account's tenant.
func (a *app) session(ctx context.Context) (*application.Service, domain.Account, error) {
	account, err := a.repo.Load(ctx)
	if err != nil {
		return nil, domain.Account{}, err
	}

	password, err := a.secretStore.Get(ctx, account.SecretRef)
	if err != nil {
		return nil, domain.Account{}, fmt.Errorf("load account password: %w", err)
	}

	service := application.NewService(a.scheduleSource(account, password), a.clock, a.logger)

	return service, account, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
