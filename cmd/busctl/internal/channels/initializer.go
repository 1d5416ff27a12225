package channels

import (
	"io"
	"log"
	"os"

	"github.com/nfrund/typedbus/internal/app"
	"github.com/nfrund/typedbus/internal/config"
	"github.com/nfrund/typedbus/internal/logging"

	// Registers the probe channels in the default catalog.
	_ "github.com/nfrund/typedbus/internal/probe"
)

// Options adjusts how Initialize builds the app.
type Options struct {
	Verbose bool   // log to stderr at the configured level instead of discarding
	Backend string // overrides TYPEDBUS_BACKEND when set
}

// Initialize loads configuration from .env and the environment and wires the
// app. Logging is silenced unless opts.Verbose is set so that command output
// stays machine-readable.
func Initialize(opts Options) (*app.App, error) {
	log.SetOutput(io.Discard)

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.Discard()
	if opts.Verbose {
		logger = logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel}, os.Stderr)
	}

	return app.New(cfg, logger), nil
}
