package backend

import (
	"context"
	"errors"
	"fmt"

	"ledgerkit/internal/amqp"
	"ledgerkit/internal/ledger"
	"ledgerkit/internal/ledger/google"
	"ledgerkit/internal/ledger/memory"
	"ledgerkit/internal/log"
	"ledgerkit/internal/services"
	"ledgerkit/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend validates config and returns a lazily connected ledger. The
// backend itself is opened on first use; AMQP is dialled eagerly and its
// failure only disables events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var open ledger.OpenFunc
	switch config.Type {
	case SQLiteBackend:
		open = func(ctx context.Context) (ledger.Ledger, error) {
			repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
			}
			f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
			return repo, nil
		}
	case SheetsBackend:
		open = func(ctx context.Context) (ledger.Ledger, error) {
			cli, err := google.New(ctx, google.Config{
				SpreadsheetID:   config.GoogleSpreadsheetID,
				CredentialsJSON: config.GoogleServiceAccountJSON,
				CredentialsFile: config.GoogleServiceAccountFile,
				CacheTTL:        config.GoogleCacheTTL,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
			}
			f.logger.InfoContext(ctx, "Initialized Google Sheets backend")
			return cli, nil
		}
	case MemoryBackend:
		open = func(ctx context.Context) (ledger.Ledger, error) {
			store, err := memory.NewFromFile(config.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
			}
			f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)
			return store, nil
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	lazy := ledger.NewLazy(open)

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			amqpClient = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	// A nil *amqp.Client must not reach the interface as a non-nil value.
	var events services.EventPublisher
	if amqpClient != nil {
		events = amqpClient
	}

	return &BackendResult{
		Ledger:  lazy,
		Service: services.NewLedgerService(lazy, events, f.logger),
		Cleanup: func() error {
			var errs []error
			if err := lazy.Close(); err != nil {
				errs = append(errs, fmt.Errorf("ledger: %w", err))
			}
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}
