package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/hooks"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/resolve"
	"github.com/brendtumi/feasible/internal/shell"
)

const portConfig = `
variables:
  PORT:
    question: Which port?
    initial: "3000"
files:
  config.json:
    type: json
    variables: [PORT]
`

func parseConfig(t *testing.T, doc string) *config.Loaded {
	t.Helper()
	loaded, err := config.Parse("feasible.yml", config.FormatYAML, []byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return loaded
}

func newEngine(root string) *RunEngine {
	return &RunEngine{
		ProjectRoot: root,
		Prompter:    prompt.Defaults{},
		Runner:      &shell.ExecRunner{Dir: root},
	}
}

func readLock(t *testing.T, root string) *lock.Record {
	t.Helper()
	rec, err := lock.Load(filepath.Join(root, lock.DefaultPath))
	if err != nil {
		t.Fatalf("reading lock: %v", err)
	}
	return rec
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type failingPrompter struct{}

func (failingPrompter) Ask(context.Context, []prompt.Question) (map[string]any, error) {
	return nil, errors.New("unexpected prompt")
}

type fakeCloner struct {
	calls [][2]string
	err   error
}

func (f *fakeCloner) Clone(_ context.Context, url, target string) error {
	f.calls = append(f.calls, [2]string{url, target})
	return f.err
}

func TestRunEngineFirstRunNonInteractive(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	result, err := eng.Run(context.Background(), parseConfig(t, portConfig), RunOptions{NoInteraction: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.FirstRun || result.Skipped {
		t.Errorf("FirstRun = %v, Skipped = %v", result.FirstRun, result.Skipped)
	}

	if got := readFile(t, filepath.Join(root, "config.json")); got != `{"PORT":"3000"}` {
		t.Errorf("config.json = %q", got)
	}

	rec := readLock(t, root)
	if !reflect.DeepEqual(rec.Files, []string{"config.json"}) {
		t.Errorf("lock files = %v", rec.Files)
	}
	if rec.Variables["PORT"] != "3000" {
		t.Errorf("lock PORT = %v", rec.Variables["PORT"])
	}
	if rec.Checksum.Version != lock.Version || rec.Checksum.File != "feasible.yml" {
		t.Errorf("checksum = %+v", rec.Checksum)
	}
	if fileExists(filepath.Join(root, lock.DefaultPath+lock.BackupSuffix)) {
		t.Error("backup should not remain after a successful run")
	}
}

func TestRunEngineComputedDefault(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	doc := `
defaults:
  answer:
    type: bash
    command: echo 42
files:
  answer.txt: "${answer.val}"
`

	result, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Variables["answer"] != "42" {
		t.Errorf("answer = %#v, want \"42\"", result.Variables["answer"])
	}
	if got := readFile(t, filepath.Join(root, "answer.txt")); got != "42" {
		t.Errorf("answer.txt = %q", got)
	}
}

func TestRunEngineNothingToDo(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	loaded := parseConfig(t, portConfig)

	if _, err := eng.Run(context.Background(), loaded, RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	backup := filepath.Join(root, lock.DefaultPath+lock.BackupSuffix)
	if err := os.WriteFile(backup, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	eng.Prompter = failingPrompter{}
	result, err := eng.Run(context.Background(), loaded, RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !result.Skipped {
		t.Error("expected the second run to be skipped")
	}
	if fileExists(backup) {
		t.Error("stale backup should be removed")
	}
}

func TestRunEngineForcePromptsAgain(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	loaded := parseConfig(t, portConfig)

	if _, err := eng.Run(context.Background(), loaded, RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	eng.Prompter = failingPrompter{}
	if _, err := eng.Run(context.Background(), loaded, RunOptions{Force: true}); err == nil {
		t.Fatal("expected forced run to prompt")
	}
}

func TestRunEngineNoInteractionUsesPreviousVariables(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	if _, err := eng.Run(context.Background(), parseConfig(t, portConfig), RunOptions{
		Overrides: []resolve.Override{{Key: "PORT", Value: "8080"}},
	}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	changed := portConfig + "  port.txt: \"${PORT.val}\"\n"
	eng.Prompter = failingPrompter{}
	result, err := eng.Run(context.Background(), parseConfig(t, changed), RunOptions{NoInteraction: true})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result.Skipped {
		t.Fatal("non-interactive run with a previous lock must generate files")
	}
	if got := readFile(t, filepath.Join(root, "port.txt")); got != "8080" {
		t.Errorf("port.txt = %q", got)
	}
}

func TestRunEngineOverrides(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	_, err := eng.Run(context.Background(), parseConfig(t, portConfig), RunOptions{
		Overrides: []resolve.Override{{Key: "PORT", Value: "9000"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "config.json")); got != `{"PORT":"9000"}` {
		t.Errorf("config.json = %q", got)
	}
}

func TestRunEngineCleansStaleOutputs(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	first := `
files:
  a.txt: a
  b.txt: b
`
	second := `
files:
  a.txt: A
`
	if _, err := eng.Run(context.Background(), parseConfig(t, first), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if !fileExists(filepath.Join(root, "b.txt")) {
		t.Fatal("b.txt should exist after the first run")
	}

	result, err := eng.Run(context.Background(), parseConfig(t, second), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if fileExists(filepath.Join(root, "b.txt")) {
		t.Error("b.txt should have been cleaned up")
	}
	if got := readFile(t, filepath.Join(root, "a.txt")); got != "A" {
		t.Errorf("a.txt = %q", got)
	}
	if len(result.Removed) != 2 {
		t.Errorf("removed = %v, want a.txt and b.txt", result.Removed)
	}
	if rec := readLock(t, root); !reflect.DeepEqual(rec.Files, []string{"a.txt"}) {
		t.Errorf("lock files = %v", rec.Files)
	}
}

func TestRunEngineNoClean(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	if _, err := eng.Run(context.Background(), parseConfig(t, "files:\n  b.txt: b\n"), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := eng.Run(context.Background(), parseConfig(t, "files:\n  a.txt: a\n"), RunOptions{NoClean: true}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !fileExists(filepath.Join(root, "b.txt")) {
		t.Error("b.txt should be kept with NoClean")
	}
}

func TestRunEnginePreHookFailureRestoresLock(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	if _, err := eng.Run(context.Background(), parseConfig(t, portConfig), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := readLock(t, root)

	failing := portConfig + "actions:\n  pre: exit 3\n"
	_, err := eng.Run(context.Background(), parseConfig(t, failing), RunOptions{
		Overrides: []resolve.Override{{Key: "PORT", Value: "1"}},
	})
	var ee *hooks.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if ee.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", ee.ExitCode())
	}

	after := readLock(t, root)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("lock changed after rollback:\nbefore %+v\nafter  %+v", before, after)
	}

	backup, err := lock.Load(filepath.Join(root, lock.DefaultPath+lock.BackupSuffix))
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if backup.Variables["PORT"] != "1" {
		t.Errorf("backup PORT = %v, want the failed attempt", backup.Variables["PORT"])
	}
	if got := readFile(t, filepath.Join(root, "config.json")); got != `{"PORT":"3000"}` {
		t.Errorf("config.json should be untouched, got %q", got)
	}
}

func TestRunEngineRenderFailureWithoutPreviousLock(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	_, err := eng.Run(context.Background(), parseConfig(t, "files:\n  a.txt: \"${nope.val}\"\n"), RunOptions{})
	if err == nil {
		t.Fatal("expected render error")
	}
	if fileExists(filepath.Join(root, lock.DefaultPath)) {
		t.Error("lock file should not exist after a failed first run")
	}
	if !fileExists(filepath.Join(root, lock.DefaultPath+lock.BackupSuffix)) {
		t.Error("backup of the failed attempt should exist")
	}
}

func TestRunEngineRenderFailureKeepsPreviousOutputs(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	doc := parseConfig(t, "files:\n  home.txt: \"${FEASIBLE_TEST_HOME.env}\"\n")

	t.Setenv("FEASIBLE_TEST_HOME", "/home/demo")
	if _, err := eng.Run(context.Background(), doc, RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	os.Unsetenv("FEASIBLE_TEST_HOME")
	if _, err := eng.Run(context.Background(), doc, RunOptions{Force: true}); err == nil {
		t.Fatal("expected render error with the environment variable unset")
	}

	if got := readFile(t, filepath.Join(root, "home.txt")); got != "/home/demo" {
		t.Errorf("home.txt = %q, previous output should be kept", got)
	}
	if rec := readLock(t, root); !reflect.DeepEqual(rec.Files, []string{"home.txt"}) {
		t.Errorf("lock files = %v", rec.Files)
	}
}

func TestRunEnginePostHookFailureIsNotFatal(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	doc := portConfig + "actions:\n  post: [\"echo done\", \"exit 4\"]\n"
	result, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PostHookErr == nil {
		t.Error("expected the post hook failure to be reported")
	}
	if rec := readLock(t, root); len(rec.Files) != 1 {
		t.Errorf("lock files = %v", rec.Files)
	}
}

func TestRunEngineHookSelection(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)

	doc := portConfig + "actions:\n  pre: touch pre.txt\n  post: touch post.txt\n"
	if _, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{Actions: hooks.Selection("post")}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fileExists(filepath.Join(root, "pre.txt")) {
		t.Error("pre hook should not run with actions=post")
	}
	if !fileExists(filepath.Join(root, "post.txt")) {
		t.Error("post hook should run with actions=post")
	}
}

func TestRunEngineClonesOnFirstRunOnly(t *testing.T) {
	root := t.TempDir()
	cloner := &fakeCloner{}
	eng := newEngine(root)
	eng.Cloner = cloner

	doc := portConfig + `
repository:
  url: https://example.com/app-${PORT.val}.git
  target: app
`
	result, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if !result.Cloned || len(cloner.calls) != 1 {
		t.Fatalf("calls = %v", cloner.calls)
	}
	if cloner.calls[0][0] != "https://example.com/app-3000.git" {
		t.Errorf("url = %q", cloner.calls[0][0])
	}
	if filepath.Base(cloner.calls[0][1]) != "app" {
		t.Errorf("target = %q", cloner.calls[0][1])
	}

	if _, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{Force: true}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(cloner.calls) != 1 {
		t.Errorf("clone should only happen on the first run, calls = %v", cloner.calls)
	}
}

func TestRunEngineCloneFailureRollsBack(t *testing.T) {
	root := t.TempDir()
	eng := newEngine(root)
	eng.Cloner = &fakeCloner{err: errors.New("network down")}

	doc := portConfig + "repository:\n  url: https://example.com/x.git\n  target: app\n"
	if _, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{}); err == nil {
		t.Fatal("expected clone error")
	}
	if fileExists(filepath.Join(root, "config.json")) {
		t.Error("files must not be generated after a failed clone")
	}
	if fileExists(filepath.Join(root, lock.DefaultPath)) {
		t.Error("lock file must not exist after a failed first run")
	}
}

func TestRunEngineCloneTargetEscape(t *testing.T) {
	root := t.TempDir()
	cloner := &fakeCloner{}
	eng := newEngine(root)
	eng.Cloner = cloner

	doc := portConfig + "repository:\n  url: https://example.com/x.git\n  target: ../outside\n"
	if _, err := eng.Run(context.Background(), parseConfig(t, doc), RunOptions{}); err == nil {
		t.Fatal("expected escape error")
	}
	if len(cloner.calls) != 0 {
		t.Error("cloner must not be called for an escaping target")
	}
}
