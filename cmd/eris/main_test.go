package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"eris/internal/config"
	"eris/internal/display"
	"eris/internal/logging"
	"eris/internal/novel"
	"eris/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	body, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := testsupport.WriteConfigFile(t, cfg, string(body))
	return &cliTestEnv{cfg: cfg, configPath: path}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", env.configPath}, args...)...)
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("eris %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %q", target, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	env := setupCLITestEnv(t)
	out = env.mustRun(t, "config", "validate")
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected validate output: %q", out)
	}
	if got := strings.TrimSpace(env.mustRun(t, "config", "path")); got != env.configPath {
		t.Fatalf("config path = %q, want %q", got, env.configPath)
	}
}

func TestConfigValidateRejectsBadThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteConfigFile(t, cfg, "[recognition]\nfuzzy_threshold = 0.5\n")
	if _, err := runCLI(t, "--config", path, "config", "validate"); err == nil {
		t.Fatal("expected validation error for a low fuzzy threshold")
	}
}

func TestLibraryLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "library", "add", "Mother of Learning", "--keyword", "MoL", "--status", "completed", "--chapters", "108")
	if !strings.Contains(out, "Added Mother of Learning") {
		t.Fatalf("unexpected add output: %q", out)
	}
	if _, err := env.run(t, "library", "add", "mother of learning"); err == nil {
		t.Fatal("expected duplicate title error")
	}

	out = env.mustRun(t, "library", "list")
	if !strings.Contains(out, "Mother of Learning") {
		t.Fatalf("list missing novel: %q", out)
	}

	env.mustRun(t, "library", "read", "MoL", "--chapter", "20")
	env.mustRun(t, "library", "read", "Mother of Learning", "--chapter", "7")

	var shown novel.Novel
	out = env.mustRun(t, "library", "show", "MoL", "--json")
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if shown.Read.Chapters != 7 {
		t.Fatalf("exact read should move progress backwards, got %v", shown.Read.Chapters)
	}
	if shown.Status != novel.StatusCompleted {
		t.Fatalf("status = %q", shown.Status)
	}

	env.mustRun(t, "library", "keyword", "MoL", "Zorian")
	env.mustRun(t, "library", "move", "Zorian", "on_hold")
	out = env.mustRun(t, "library", "list", "--list", "on_hold")
	if !strings.Contains(out, "Mother of Learning") {
		t.Fatalf("expected novel on hold: %q", out)
	}

	out = env.mustRun(t, "library", "history", "MoL")
	for _, want := range []string{"content_read", "novel_list_change", "novel_add"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history missing %s:\n%s", want, out)
		}
	}

	env.mustRun(t, "library", "remove", "MoL")
	if _, err := env.run(t, "library", "show", "MoL"); err == nil {
		t.Fatal("expected not found after remove")
	}
	out = env.mustRun(t, "library", "list")
	if !strings.Contains(out, "Library is empty") {
		t.Fatalf("expected empty library: %q", out)
	}
}

func TestLibraryRejectsUnknownList(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "library", "add", "Worm", "--list", "someday"); err == nil {
		t.Fatal("expected invalid list error")
	}
}

func TestRecognizeTitle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "library", "add", "Mother of Learning")

	out := env.mustRun(t, "recognize", "--json", "Chapter 12 - Mother of Learning - Royal Road - Mozilla Firefox")
	var view recognizeView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode recognize output: %v\n%s", err, out)
	}
	if !view.Parsed || !view.Reading || view.Chapter != 12 {
		t.Fatalf("unexpected parse: %+v", view)
	}
	if view.NovelTitle != "Mother of Learning" {
		t.Fatalf("expected match, got %+v", view)
	}

	out = env.mustRun(t, "recognize", "Inbox - Thunderbird")
	if !strings.Contains(out, "No window title matched") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStatusReadsBoard(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "status")
	if !strings.Contains(out, "not running") || !strings.Contains(out, "not written yet") {
		t.Fatalf("unexpected idle status: %q", out)
	}

	board := display.NewBoard(env.cfg.Paths.StatusFile, logging.NewNop())
	board.PublishReadingNow(display.ReadingNow{
		Novel:     &novel.Novel{ID: "n1", Title: "Mother of Learning", Read: novel.Content{Chapters: 11}},
		NovelName: "Mother of Learning",
		Source:    "Royal Road",
		Chapter:   12,
		Reading:   true,
	})

	out = env.mustRun(t, "status")
	for _, want := range []string{"Mother of Learning", "ch 12", "ch 11"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}

	board.PublishNotReading()
	out = env.mustRun(t, "status")
	if !strings.Contains(out, "not reading") {
		t.Fatalf("expected not reading: %q", out)
	}
}

func TestLogsFormatsRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	body := `{"level":"info","msg":"first"}` + "\n" + `{"level":"info","msg":"progress committed","component":"library"}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out := env.mustRun(t, "logs", "-n", "1")
	if strings.Contains(out, "first") || !strings.Contains(out, "[library] progress committed") {
		t.Fatalf("unexpected logs output: %q", out)
	}
	out = env.mustRun(t, "logs", "--raw")
	if !strings.Contains(out, `"msg":"first"`) {
		t.Fatalf("expected raw JSON: %q", out)
	}
}
