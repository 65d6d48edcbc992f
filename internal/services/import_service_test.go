package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"spendboard/internal/amqp"
	"spendboard/internal/core"
)

type fakeLedger struct {
	saved []core.Transaction
	err   error
}

func (f *fakeLedger) UpsertTransactions(_ context.Context, txns []core.Transaction) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, txns...)
	return len(txns), nil
}

type fakePublisher struct {
	accounts []string
	err      error
}

func (f *fakePublisher) PublishRenderRequest(_ context.Context, msg *amqp.RenderRequestMessage) error {
	f.accounts = append(f.accounts, msg.Account)
	return f.err
}

func TestImportPublishesPerAccount(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	svc := NewImportService(ledger, pub, "default")

	n, err := svc.Import(context.Background(), []core.Transaction{
		{ID: "1", Account: "joint"},
		{ID: "2"},
		{ID: "3", Account: "joint"},
		{ID: "4", Account: "alice"},
	})
	if err != nil || n != 4 {
		t.Fatalf("Import = %d, %v", n, err)
	}
	if want := []string{"alice", "default", "joint"}; !slices.Equal(pub.accounts, want) {
		t.Fatalf("published %v, want %v", pub.accounts, want)
	}
}

func TestImportSurvivesPublishFailure(t *testing.T) {
	svc := NewImportService(&fakeLedger{}, &fakePublisher{err: errors.New("broker down")}, "default")
	if n, err := svc.Import(context.Background(), []core.Transaction{{ID: "1"}}); err != nil || n != 1 {
		t.Fatalf("Import = %d, %v", n, err)
	}
}

func TestImportWithoutPublisher(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewImportService(ledger, nil, "default")
	if _, err := svc.Import(context.Background(), []core.Transaction{{ID: "1"}}); err != nil {
		t.Fatal(err)
	}
	if len(ledger.saved) != 1 {
		t.Errorf("saved %d", len(ledger.saved))
	}
}

func TestImportLedgerError(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewImportService(&fakeLedger{err: errors.New("disk full")}, pub, "default")
	if _, err := svc.Import(context.Background(), []core.Transaction{{ID: "1"}}); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.accounts) != 0 {
		t.Errorf("nothing should be published after a failed save")
	}
}
