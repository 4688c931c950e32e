package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if _, ok := providers[cfg.LLM.Provider]; !ok {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unrecognized provider %q", cfg.LLM.Provider),
		})
	}
	if cfg.LLM.Model == "" {
		errs = append(errs, ValidationError{Field: "llm.model", Message: "is required"})
	}

	for _, t := range []struct {
		field string
		value float64
	}{
		{"llm.temperature.generate", cfg.LLM.Temperature.Generate},
		{"llm.temperature.validate", cfg.LLM.Temperature.Validate},
		{"llm.temperature.repair", cfg.LLM.Temperature.Repair},
	} {
		if t.value < 0 || t.value > 2 {
			errs = append(errs, ValidationError{Field: t.field, Message: "must be between 0 and 2"})
		}
	}

	for _, d := range []struct {
		field string
		value string
	}{
		{"llm.timeout", cfg.LLM.Timeout},
		{"render.timeout", cfg.Render.Timeout},
		{"concat.timeout", cfg.Concat.Timeout},
	} {
		validateDuration(d.field, d.value, &errs)
	}

	if cfg.Render.Command == "" {
		errs = append(errs, ValidationError{Field: "render.command", Message: "is required"})
	}
	if _, ok := qualityDirs[cfg.Render.Quality]; !ok {
		errs = append(errs, ValidationError{
			Field:   "render.quality",
			Message: fmt.Sprintf("unrecognized quality %q (want one of l, m, h, p, k)", cfg.Render.Quality),
		})
	}
	if cfg.Render.MediaDir == "" {
		errs = append(errs, ValidationError{Field: "render.media_dir", Message: "is required"})
	}
	if cfg.Render.SceneClass == "" {
		errs = append(errs, ValidationError{Field: "render.scene_class", Message: "is required"})
	}
	if cfg.Render.MaxRetries < 0 {
		errs = append(errs, ValidationError{Field: "render.max_retries", Message: "must not be negative"})
	}

	if cfg.Concat.Command == "" {
		errs = append(errs, ValidationError{Field: "concat.command", Message: "is required"})
	}
	if cfg.Concat.Output == "" {
		errs = append(errs, ValidationError{Field: "concat.output", Message: "is required"})
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unrecognized level %q", cfg.Log.Level),
		})
	}

	return errs
}

func validateDuration(field, value string, errs *[]ValidationError) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid duration %q", value)})
		return
	}
	if d <= 0 {
		*errs = append(*errs, ValidationError{Field: field, Message: "must be positive"})
	}
}
