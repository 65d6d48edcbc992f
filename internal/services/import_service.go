package services

import (
	"context"
	"fmt"
	"slices"

	"spendboard/internal/amqp"
	"spendboard/internal/core"
	"spendboard/internal/log"
)

// Ledger stores imported transactions.
type Ledger interface {
	UpsertTransactions(ctx context.Context, txns []core.Transaction) (int, error)
}

// RenderPublisher queues a render.
type RenderPublisher interface {
	PublishRenderRequest(ctx context.Context, msg *amqp.RenderRequestMessage) error
}

// ImportService saves transactions locally and asks the worker to refresh
// every account they touch.
type ImportService struct {
	ledger         Ledger
	publisher      RenderPublisher
	defaultAccount string
	logger         *log.Logger
}

// NewImportService creates the service; a nil publisher disables render
// requests.
func NewImportService(ledger Ledger, publisher RenderPublisher, defaultAccount string) *ImportService {
	return &ImportService{
		ledger:         ledger,
		publisher:      publisher,
		defaultAccount: defaultAccount,
		logger:         log.WithComponent(log.ComponentStorage),
	}
}

// Import upserts txns and then publishes one render request per affected
// account. A failed publish is logged; the import has already succeeded.
func (s *ImportService) Import(ctx context.Context, txns []core.Transaction) (int, error) {
	n, err := s.ledger.UpsertTransactions(ctx, txns)
	if err != nil {
		return 0, fmt.Errorf("save transactions: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions saved", log.FieldOperation, log.OpImport, log.FieldCount, n)

	for _, account := range s.accounts(txns) {
		if err := s.publishRender(ctx, account); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish render request",
				log.FieldAccount, account, log.FieldError, err)
		}
	}
	return n, nil
}

// accounts lists the distinct accounts in txns, sorted.
func (s *ImportService) accounts(txns []core.Transaction) []string {
	var out []string
	for _, t := range txns {
		a := t.Account
		if a == "" {
			a = s.defaultAccount
		}
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

func (s *ImportService) publishRender(ctx context.Context, account string) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping render request")
		return nil
	}
	return s.publisher.PublishRenderRequest(ctx, amqp.NewRenderRequestMessage(account, ""))
}
