// Package backend builds the persistence store and import notifier selected
// by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/ports"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

// Type names a store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// Types returns every valid backend type.
func Types() []Type {
	return []Type{Memory, SQLite}
}

// Config selects and configures the store. AMQP settings are optional; an
// empty AMQPURL disables import notifications.
type Config struct {
	Type           Type
	SQLiteDBPath   string
	MemorySeedFile string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:           Type(c.DataBackend),
		SQLiteDBPath:   c.SQLiteDBPath,
		MemorySeedFile: c.MemorySeedFile,
		AMQPURL:        c.AMQPURL,
		AMQPExchange:   c.AMQPExchange,
		AMQPQueue:      c.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case Memory:
	default:
		return fmt.Errorf("invalid backend type: %q", c.Type)
	}
	return nil
}

// Result is a ready store with its optional notifier. Cleanup releases both.
type Result struct {
	Store    ports.Store
	Notifier ports.ImportNotifier
	Cleanup  func() error
}

type Factory struct {
	logger *slog.Logger
	// dial opens the AMQP client; replaced in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger, dial: amqp.NewClient}
}

// Create opens the configured store. A broker that cannot be reached is
// logged and imports proceed without notifications.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store ports.Store
		err   error
	)
	switch cfg.Type {
	case SQLite:
		store, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		store, err = memory.NewFromFile(cfg.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("initialize memory backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", cfg.MemorySeedFile)
	}

	res := &Result{Store: store, Cleanup: store.Close}
	if cfg.AMQPURL == "" {
		return res, nil
	}

	client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", "error", err)
		return res, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	res.Notifier = client
	res.Cleanup = func() error {
		return errors.Join(client.Close(), store.Close())
	}
	return res, nil
}
