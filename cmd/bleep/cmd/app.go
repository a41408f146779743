package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kevintanjc/bleep/auth"
	"github.com/kevintanjc/bleep/biometric"
	"github.com/kevintanjc/bleep/internal/config"
	"github.com/kevintanjc/bleep/internal/util"
	"github.com/kevintanjc/bleep/securestore"
	"github.com/kevintanjc/bleep/storage"
	bboltstorage "github.com/kevintanjc/bleep/storage/bbolt"
	"github.com/kevintanjc/bleep/storage/memory"
	sqlitestorage "github.com/kevintanjc/bleep/storage/sqlite"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg     config.Config
	repo    storage.Repository
	closer  io.Closer
	store   *securestore.Store
	manager *auth.Manager
}

func openApp(ctx context.Context, cfg config.Config, prompter auth.PinPrompter) (*app, error) {
	repo, closer, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, repo: repo, closer: closer}

	wrappingKey, err := loadWrappingKey(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store, err = securestore.New(repo, wrappingKey)
	util.WipeBytes(wrappingKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening secure store: %w", err)
	}

	bio, err := newBiometric(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.manager, err = auth.New(a.store,
		auth.WithTTL(cfg.SessionTTL),
		auth.WithDefaultReason(cfg.Reason),
		auth.WithBiometric(bio),
		auth.WithPinPrompter(prompter),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.manager != nil {
		a.manager.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			slog.Warn("closing storage", slog.String("error", err.Error()))
		}
	}
}

func openRepository(ctx context.Context, cfg config.Config) (storage.Repository, io.Closer, error) {
	if cfg.Backend == config.BackendMemory {
		return memory.NewRepository(), nil, nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := sqlitestorage.NewRepositoryFromFile(ctx, cfg.StorePath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return repo, repo, nil
	default:
		repo, err := bboltstorage.NewRepositoryFromFile(cfg.StorePath(), bboltstorage.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bbolt storage (is another bleep process using it?): %w", err)
		}
		return repo, repo, nil
	}
}

func loadWrappingKey(cfg config.Config) ([]byte, error) {
	if cfg.WrappingKey != "" {
		key, err := util.DecodeKeyHex(cfg.WrappingKey, securestore.WrappingKeySize)
		if err != nil {
			return nil, fmt.Errorf("BLEEP_WRAPPING_KEY: %w", err)
		}
		return key, nil
	}
	if cfg.Backend == config.BackendMemory {
		return util.RandomBytes(securestore.WrappingKeySize)
	}
	return securestore.LoadOrCreateKeyFile(cfg.KeyFilePath())
}

func newBiometric(cfg config.Config) (*biometric.Gate, error) {
	switch cfg.Biometric {
	case config.BiometricNone:
		return biometric.New(biometric.None{}), nil
	case config.BiometricCommand:
		return biometric.New(&biometric.Command{
			ProbeCmd:  cfg.BiometricProbe,
			VerifyCmd: cfg.BiometricVerify,
		}), nil
	default:
		p, err := biometric.Fprintd()
		if err != nil {
			if cfg.Biometric == config.BiometricFprintd {
				return nil, err
			}
			slog.Debug("fprintd unavailable", slog.String("error", err.Error()))
			return biometric.New(biometric.None{}), nil
		}
		return biometric.New(p), nil
	}
}
