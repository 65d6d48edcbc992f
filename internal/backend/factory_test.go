package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendboard/internal/config"
	"spendboard/internal/core"
	"spendboard/internal/sources"
	"spendboard/internal/sources/file"
	"spendboard/internal/sources/google"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataSource:          "sheets",
		GoogleSpreadsheetID: "abc",
		GoogleSheetName:     "Ledger",
		WeatherFile:         "w.json",
		SourceTimeout:       3 * time.Second,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.Google.SpreadsheetID != "abc" || cfg.Google.SheetName != "Ledger" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SourceTimeout != 3*time.Second || cfg.WeatherFile != "w.json" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataSource: "plaid"}); err == nil {
		t.Error("expected error for unknown source")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file", Config{Type: FileBackend, TransactionsFile: "t.json"}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"demo", Config{Type: DemoBackend}, false},
		{"unknown", Config{Type: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateFileBackend(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "transactions.json")
	body := `[{"id":"1","date":"2024-03-14","amount":12.5,"categories":["Food"]}]`
	if err := os.WriteFile(txPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:             FileBackend,
		TransactionsFile: txPath,
		WeatherFile:      filepath.Join(dir, "weather.json"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Demo {
		t.Fatal("existing file should not fall back to demo")
	}
	if _, ok := res.Weather.(*file.Weather); !ok {
		t.Errorf("weather = %T, want file reader", res.Weather)
	}
	txns, err := res.Transactions.ListTransactions(context.Background(), "default", core.NewDate(2024, 3, 1))
	if err != nil || len(txns) != 1 {
		t.Fatalf("ListTransactions = %v, %v", txns, err)
	}
}

func TestCreateFileBackendMissingFileFallsBackToDemo(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:             FileBackend,
		TransactionsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if !res.Demo {
		t.Fatal("expected demo fallback")
	}
	if _, ok := res.Weather.(sources.NoWeather); !ok {
		t.Errorf("weather = %T, want NoWeather", res.Weather)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "spendboard.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Ledger == nil {
		t.Fatal("sqlite backend must expose its ledger")
	}
	txns, err := res.Transactions.ListTransactions(context.Background(), "default", core.NewDate(2024, 3, 1))
	if err != nil || len(txns) != 0 {
		t.Fatalf("ListTransactions = %v, %v", txns, err)
	}
}

func TestCreateSheetsBackendWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:   SheetsBackend,
		Google: google.Config{SpreadsheetID: "sheet-id"},
	})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}
