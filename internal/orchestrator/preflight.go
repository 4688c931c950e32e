package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lucasnoah/manimator/internal/config"
)

var (
	// ErrNoDocument means the input document is missing or unreadable.
	ErrNoDocument = errors.New("input document not found")
	// ErrMissingCredentials means the configured provider has no API key.
	ErrMissingCredentials = errors.New("missing API credentials")
	// ErrInvalidConfig means config.Validate reported errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Preflight runs the checks that are fatal to a whole run. It is called
// before any unit is processed.
func Preflight(cfg *config.Config, docPath string) error {
	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	info, err := os.Stat(docPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoDocument, docPath)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNoDocument, docPath)
	}

	if cfg.NeedsCredentials() && cfg.APIKey() == "" {
		return fmt.Errorf("%w: set %s in the environment or a .env file", ErrMissingCredentials, cfg.LLM.APIKeyEnv)
	}
	return nil
}
