package internal

import (
	"os"
	"path/filepath"
	"testing"
)

// clearLLMEnv blanks all LLM credential variables so tests are independent
// of the host environment.
func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "USE_AZURE",
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_DEPLOYMENT_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestNewApp_WithoutCredentials(t *testing.T) {
	clearLLMEnv(t)
	base := t.TempDir()

	app, err := NewApp(base)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	if app.Store == nil {
		t.Error("expected activity store to be initialized")
	}
	if app.Metrics == nil {
		t.Error("expected metrics to be initialized")
	}
	if app.EventLog == nil {
		t.Error("expected event log to be initialized")
	}

	// Without LLM credentials the tracking services stay disabled.
	if app.Tracker != nil {
		t.Error("expected tracker to be nil without credentials")
	}
	if app.Normalizer != nil {
		t.Error("expected normalizer to be nil without credentials")
	}
}

func TestNewApp_WithOpenAIKey(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	base := t.TempDir()

	app, err := NewApp(base)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.Close()

	if app.Tracker == nil {
		t.Error("expected tracker to be initialized with credentials")
	}
	if app.Normalizer == nil {
		t.Error("expected normalizer to be initialized with credentials")
	}
}

func TestNewApp_CloseIsIdempotentOnPartialInit(t *testing.T) {
	clearLLMEnv(t)
	app := &App{}
	if err := app.Close(); err != nil {
		t.Errorf("Close on empty app failed: %v", err)
	}
}

func TestResolveBasePath_EnvVar(t *testing.T) {
	t.Setenv("TRACKER_HOME", "/some/custom/path")
	if got := ResolveBasePath(); got != "/some/custom/path" {
		t.Errorf("ResolveBasePath() = %q, want /some/custom/path", got)
	}
}

func TestResolveBasePath_FindsConfigInParent(t *testing.T) {
	t.Setenv("TRACKER_HOME", "")
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, ".trackerconfig"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(base, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got := ResolveBasePath()
	// Resolve symlinks: macOS temp dirs are behind /private.
	want, _ := filepath.EvalSymlinks(base)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("ResolveBasePath() = %q, want %q", got, base)
	}
}
