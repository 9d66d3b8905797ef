package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/vidsim/internal/deps"
	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/history"
)

func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`[paths]
work_dir = %q
incoming_dir = %q
ready_dir = %q
download_dir = %q
log_dir = %q
history_db = %q
%s`,
		filepath.Join(dir, "work"),
		filepath.Join(dir, "incoming"),
		filepath.Join(dir, "ready"),
		filepath.Join(dir, "downloads"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "history.db"),
		extra,
	)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	want := []string{"compare", "transform", "watch", "download", "bot", "history", "doctor", "config", "version"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "vidsim version "+appVersion) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output %q does not mention %s", out, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[transform]") {
		t.Error("sample config missing transform section")
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Error("expected error when config already exists")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	t.Setenv("VIDSIM_TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	path, _ := writeTestConfig(t, "[bot]\ntoken = \"secret-token\"\n")

	out, err := runCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Error("token was printed")
	}
	if !strings.Contains(out, "********") || !strings.Contains(out, "width = 720") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path, _ := writeTestConfig(t, "[compare]\nwidth = 0\n")
	if _, err := runCommand(t, "--config", path, "history"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCompareRejectsNonPositiveGeometry(t *testing.T) {
	path, dir := writeTestConfig(t, "")
	ref := filepath.Join(dir, "a.mp4")
	dist := filepath.Join(dir, "b.mp4")

	for _, flag := range []string{"--width=-5", "--height=0"} {
		_, err := runCommand(t, "--config", path, "--no-log", "compare", flag, ref, dist)
		if !vserrors.IsKind(err, vserrors.KindConfig) || !strings.Contains(err.Error(), "geometry must be positive") {
			t.Errorf("compare %s: expected geometry error, got %v", flag, err)
		}
	}
}

func seedHistory(t *testing.T, dbPath string) {
	t.Helper()
	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	score := 0.9123
	entries := []history.Entry{
		{Source: history.SourceCLI, Reference: "/v/a.mp4", Distorted: "/v/b.mp4", Score: &score, Rating: "Very similar"},
		{Source: history.SourceBot, Reference: "/v/c.mp4", Distorted: "/v/d.mp4", Error: "ffmpeg failed"},
	}
	for _, e := range entries {
		if _, err := store.Record(context.Background(), e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	path, dir := writeTestConfig(t, "")

	out, err := runCommand(t, "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No comparisons recorded yet.") {
		t.Errorf("unexpected empty output %q", out)
	}

	seedHistory(t, filepath.Join(dir, "history.db"))

	out, err = runCommand(t, "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"a.mp4", "b.mp4", "0.9123", "Very similar", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("history table missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryRowsRatings(t *testing.T) {
	score := 0.97
	rows := historyRows([]history.Entry{
		{Source: history.SourceCLI, Score: &score, Rating: "Almost identical"},
		{Source: history.SourceBot, Error: "ffmpeg failed"},
		{Source: history.SourceTransform, Score: &score, Rating: "legacy label"},
	})
	want := []string{"🔁 Almost identical", "failed", "legacy label"}
	for i, w := range want {
		if got := rows[i][5]; got != w {
			t.Errorf("row %d rating = %q, want %q", i, got, w)
		}
	}
}

func TestHistoryCommandJSON(t *testing.T) {
	path, dir := writeTestConfig(t, "")
	seedHistory(t, filepath.Join(dir, "history.db"))

	out, err := runCommand(t, "--config", path, "--json", "history", "--limit", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["error"] != "ffmpeg failed" {
		t.Errorf("expected newest entry first, got %v", entries[0])
	}
}

func TestDoctorRows(t *testing.T) {
	rows := doctorRows([]deps.Status{
		{Name: "FFmpeg", Available: true, Path: "/usr/bin/ffmpeg", Description: "encodes"},
		{Name: "yt-dlp", Optional: true, Detail: `binary "yt-dlp" not found`},
		{Name: "FFprobe", Detail: `binary "ffprobe" not found`},
	})
	want := [][]string{
		{"FFmpeg", "Available", "/usr/bin/ffmpeg", "encodes"},
		{"yt-dlp", "Missing (Optional)", `binary "yt-dlp" not found`, ""},
		{"FFprobe", "Missing", `binary "ffprobe" not found`, ""},
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestBotCommandRequiresToken(t *testing.T) {
	t.Setenv("VIDSIM_TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	path, _ := writeTestConfig(t, "")

	_, err := runCommand(t, "--config", path, "--no-log", "bot", "ssim")
	if err == nil || !strings.Contains(err.Error(), "bot token is not configured") {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if _, err := runCommand(t, "--config", path, "--no-log", "bot", "chess"); err == nil {
		t.Fatal("expected invalid mode error")
	}
}
