package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soundcrew/houston/internal/report"
	"github.com/soundcrew/houston/internal/ticket"
	"github.com/soundcrew/houston/pkg/protocol"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seededConfig writes a config pointing at a fresh SQLite store holding two
// tickets and returns the config path.
func seededConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tickets.db")

	store, err := ticket.Open(context.Background(), ticket.DriverSQLite, dbPath, "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, tk := range []*protocol.Ticket{
		{CreatedAt: time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC), Submitter: protocol.Submitter{ID: 1},
			Staff: []string{"Кожин"}, Date: "2025-06-10", Venue: "Бронная", Play: "Гамлет", Problem: "фон в порталах", Cause: "земля"},
		{CreatedAt: time.Date(2025, 7, 2, 19, 0, 0, 0, time.UTC), Submitter: protocol.Submitter{ID: 2},
			Staff: []string{"Иванов"}, Date: "2025-07-02", Venue: "Мельников", Play: "Баня", Problem: "свист", Cause: "микрофон"},
	} {
		if _, err := store.Insert(context.Background(), tk); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	store.Close()

	path := filepath.Join(dir, "houston.yaml")
	content := "bot:\n  token: test-token\nstore:\n  driver: sqlite\n  path: " + dbPath + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "houstonctl dev") || !strings.Contains(out, "commit: none") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, sub := range []string{"tickets", "export", "config", "health", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got: %s", sub, out)
		}
	}
}

func TestTicketsList(t *testing.T) {
	cfg := seededConfig(t)

	out, err := run(t, "tickets", "list", "--config", cfg)
	if err != nil {
		t.Fatalf("tickets list failed: %v", err)
	}
	if !strings.Contains(out, "Гамлет") || !strings.Contains(out, "Баня") {
		t.Errorf("expected both tickets, got: %s", out)
	}

	out, err = run(t, "tickets", "list", "--config", cfg, "--month", "2025-07")
	if err != nil {
		t.Fatalf("tickets list --month failed: %v", err)
	}
	if strings.Contains(out, "Гамлет") || !strings.Contains(out, "Баня") {
		t.Errorf("month filter not applied: %s", out)
	}

	out, err = run(t, "tickets", "list", "--config", cfg, "--date", "2020-01-01")
	if err != nil {
		t.Fatalf("tickets list --date failed: %v", err)
	}
	if !strings.Contains(out, "No tickets found.") {
		t.Errorf("expected empty notice, got: %s", out)
	}
}

func TestTicketsListBadMonth(t *testing.T) {
	cfg := seededConfig(t)
	if _, err := run(t, "tickets", "list", "--config", cfg, "--month", "2025"); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestTicketsListExclusiveFilters(t *testing.T) {
	cfg := seededConfig(t)
	if _, err := run(t, "tickets", "list", "--config", cfg, "--date", "2025-06-10", "--play", "Баня"); err == nil {
		t.Error("expected error when combining --date and --play")
	}
}

func TestExport(t *testing.T) {
	cfg := seededConfig(t)
	output := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, "export", "--config", cfg, "--play", "Гамлет", "-o", output)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 1 tickets") {
		t.Errorf("unexpected output: %s", out)
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][7] != "Гамлет" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestExportEmpty(t *testing.T) {
	cfg := seededConfig(t)
	output := filepath.Join(t.TempDir(), "out.xlsx")

	if _, err := run(t, "export", "--config", cfg, "--date", "2020-01-01", "-o", output); err == nil {
		t.Fatal("expected error for empty export")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("workbook written for empty selection")
	}
}

func TestConfigValidate(t *testing.T) {
	out, err := run(t, "config", "validate", seededConfig(t))
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "config is valid") || !strings.Contains(out, "store: sqlite") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestConfigValidateInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: mysql\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "config", "validate", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "bot.token is required") {
		t.Errorf("expected error output to name the missing token, got: %s", out)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	out, err := run(t, "health", "--api-url", srv.URL)
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, `"status":"ok"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := run(t, "health", "--api-url", srv.URL); err == nil {
		t.Error("expected error for failing daemon")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("звук", 10); got != "звук" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("звук пропал", 5); got != "звук…" {
		t.Errorf("truncate long = %q", got)
	}
}
