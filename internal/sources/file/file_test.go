package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendboard/internal/core"
	"spendboard/internal/sources"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDecodeTransactions(t *testing.T) {
	data := []byte(`[
		{"id": "t1", "account": "main", "date": "2025-10-15", "amount": 12.5, "categories": ["Food", "Coffee"]},
		{"id": "t2", "date": "2025-10-14", "amount": "7,25", "kind": "special"},
		{"id": "t3", "date": "2025-10-13", "amount": null},
		{"date": "2025-10-12"}
	]`)
	got, err := DecodeTransactions(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].Amount.Decimal.String() != "12.5" || got[0].Categories[1] != "Coffee" {
		t.Errorf("t1 = %+v", got[0])
	}
	if got[1].Amount.Decimal.String() != "7.25" || got[1].Kind != "special" {
		t.Errorf("t2 = %+v", got[1])
	}
	if got[2].HasAmount() || got[3].HasAmount() {
		t.Errorf("null and missing amounts must stay absent")
	}
	if got[3].ID != "3" {
		t.Errorf("missing id should default to index, got %q", got[3].ID)
	}
}

func TestDecodeTransactionsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"bad date", `[{"id":"x","date":"15/10/2025","amount":1}]`},
		{"bad amount", `[{"id":"x","date":"2025-10-15","amount":"abc"}]`},
		{"object amount", `[{"id":"x","date":"2025-10-15","amount":{}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTransactions([]byte(tt.data)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestListTransactionsFiltersAccountAndDate(t *testing.T) {
	path := writeFile(t, "tx.json", `[
		{"id": "a", "account": "main", "date": "2025-10-02", "amount": 1},
		{"id": "b", "account": "other", "date": "2025-10-02", "amount": 1},
		{"id": "c", "date": "2025-10-02", "amount": 1},
		{"id": "d", "account": "main", "date": "2025-09-30", "amount": 1}
	]`)
	got, err := NewTransactions(path).ListTransactions(context.Background(), "main", core.NewDate(2025, 10, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestListTransactionsMissingFile(t *testing.T) {
	src := NewTransactions(filepath.Join(t.TempDir(), "none.json"))
	if _, err := src.ListTransactions(context.Background(), "", core.Date{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestCurrentWeather(t *testing.T) {
	path := writeFile(t, "weather.json", `{"temperature": 71.6, "weather_code": 3, "is_day": false}`)
	w, err := NewWeather(path).CurrentWeather(context.Background())
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if w.Temperature != 72 || w.Code != 3 || w.IsDay {
		t.Fatalf("weather = %+v", w)
	}
}

func TestCurrentWeatherMissingFile(t *testing.T) {
	w, err := NewWeather(filepath.Join(t.TempDir(), "none.json")).CurrentWeather(context.Background())
	if w != nil || err != nil {
		t.Fatalf("missing file = %v, %v; want no reading", w, err)
	}
}

func TestCurrentWeatherMalformed(t *testing.T) {
	path := writeFile(t, "weather.json", `{"temperature": "hot"}`)
	if _, err := NewWeather(path).CurrentWeather(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v", err)
	}
}

func TestCurrentWeatherReadings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		temp    int
		isDay   bool
	}{
		{"half rounds to even down", `{"temperature": 72.5, "weather_code": 0, "is_day": true}`, 72, true},
		{"half rounds to even up", `{"temperature": 73.5, "weather_code": 0}`, 74, true},
		{"negative half", `{"temperature": -2.5, "weather_code": 0}`, -2, true},
		{"integer night flag", `{"temperature": 60, "weather_code": 2, "is_day": 0}`, 60, false},
		{"integer day flag", `{"temperature": 60, "weather_code": 2, "is_day": 1}`, 60, true},
		{"missing flag means day", `{"temperature": 60, "weather_code": 2}`, 60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "weather.json", tt.content)
			w, err := NewWeather(path).CurrentWeather(context.Background())
			if err != nil {
				t.Fatalf("weather: %v", err)
			}
			if w.Temperature != tt.temp || w.IsDay != tt.isDay {
				t.Fatalf("weather = %+v, want temperature %d isDay %v", w, tt.temp, tt.isDay)
			}
		})
	}
}

func TestCurrentWeatherRejectsTextDayFlag(t *testing.T) {
	path := writeFile(t, "weather.json", `{"temperature": 60, "is_day": "yes"}`)
	if _, err := NewWeather(path).CurrentWeather(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestMalformedMatchesSharedSentinel(t *testing.T) {
	_, err := DecodeTransactions([]byte(`[{"id":"a","date":"2026-13-40","amount":5}]`))
	if !errors.Is(err, sources.ErrMalformed) || !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("err = %v, want sources.ErrMalformed wrapping an invalid date", err)
	}
}
