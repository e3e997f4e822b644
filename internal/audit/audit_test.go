package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func TestSanitiseKey_Secret(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "QDRANT_API_KEY", "LANGFUSE_SECRET_KEY"} {
		if got := SanitiseKey(key, "sk-abc123"); got != "set" {
			t.Errorf("%s: expected 'set', got %q", key, got)
		}
		if got := SanitiseKey(key, ""); got != "unset" {
			t.Errorf("%s: expected 'unset', got %q", key, got)
		}
	}
}

func TestSanitiseKey_NonSecret(t *testing.T) {
	t.Parallel()
	if got := SanitiseKey("MODEL_PROVIDER", "groq"); got != "groq" {
		t.Errorf("expected 'groq', got %q", got)
	}
	if got := SanitiseKey("MODEL_PROVIDER", ""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestPresence(t *testing.T) {
	t.Parallel()
	if got := presence("something"); got != "set" {
		t.Errorf("expected 'set', got %q", got)
	}
	if got := presence(""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestSanitiseConfigPath(t *testing.T) {
	t.Parallel()
	if got := sanitiseConfigPath(""); got != "none" {
		t.Errorf("expected 'none', got %q", got)
	}
	if got := sanitiseConfigPath("/tmp/config.yaml"); got != "/tmp/config.yaml" {
		t.Errorf("expected '/tmp/config.yaml', got %q", got)
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && home != "/" {
		p := home + "/.faqrag/config.yaml"
		if got := sanitiseConfigPath(p); got != "~/.faqrag/config.yaml" {
			t.Errorf("expected '~/.faqrag/config.yaml', got %q", got)
		}
	}
}

func TestLogCommandStart_RedactsSecrets(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-very-secret")
	t.Setenv("MODEL_PROVIDER", "groq")
	t.Setenv("QDRANT_API_KEY", "")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogCommandStart(context.Background(), log, "serve", "")

	if bytes.Contains(buf.Bytes(), []byte("gsk-very-secret")) {
		t.Fatalf("secret value leaked into audit log: %s", buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit log is not JSON: %v", err)
	}
	want := map[string]string{
		"command":        "serve",
		"config_file":    "none",
		"GROQ_API_KEY":   "set",
		"QDRANT_API_KEY": "unset",
		"MODEL_PROVIDER": "groq",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}
