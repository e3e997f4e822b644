// Package tracing wires the optional Langfuse callback handler into the
// answer generator.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

const defaultHost = "http://localhost:3000"

// Config holds Langfuse credentials.
type Config struct {
	Host      string
	PublicKey string
	SecretKey string
}

// ConfigFromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func ConfigFromEnv() Config {
	return Config{
		Host:      os.Getenv("LANGFUSE_HOST"),
		PublicKey: os.Getenv("LANGFUSE_PUBLIC_KEY"),
		SecretKey: os.Getenv("LANGFUSE_SECRET_KEY"),
	}
}

// Enabled reports whether both keys are present.
func (c Config) Enabled() bool {
	return c.PublicKey != "" && c.SecretKey != ""
}

// Setup initialises the Langfuse callback handler when cfg is enabled.
// Returns a flush function that must be called before process exit to ensure
// all traces are sent. If Langfuse is not configured, the handler is nil, the
// flush function is a no-op, and ok is false.
func Setup(cfg Config) (handler callbacks.Handler, flush func(), ok bool) {
	if !cfg.Enabled() {
		return nil, func() {}, false
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}

	handler, flush = langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      cfg.Host,
		PublicKey: cfg.PublicKey,
		SecretKey: cfg.SecretKey,
	})

	return handler, flush, true
}
