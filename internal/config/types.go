package config

// Config is the top-level configuration parsed from manimator.yaml. It is
// built once at process start and passed by pointer to every component.
type Config struct {
	LLM          LLMConfig    `yaml:"llm"`
	Render       RenderConfig `yaml:"render"`
	Concat       ConcatConfig `yaml:"concat"`
	Ledger       LedgerConfig `yaml:"ledger"`
	Log          LogConfig    `yaml:"log"`
	TemplatesDir string       `yaml:"templates_dir"`
}

// LLMConfig selects the oracle backend.
type LLMConfig struct {
	Provider    string       `yaml:"provider"`
	Model       string       `yaml:"model"`
	BaseURL     string       `yaml:"base_url"`
	APIKeyEnv   string       `yaml:"api_key_env"`
	Timeout     string       `yaml:"timeout"`
	Temperature Temperatures `yaml:"temperature"`
}

// Temperatures holds the sampling temperature per oracle role.
type Temperatures struct {
	Generate float64 `yaml:"generate"`
	Validate float64 `yaml:"validate"`
	Repair   float64 `yaml:"repair"`
}

// RenderConfig configures the render engine and the per-unit retry policy.
type RenderConfig struct {
	Command    string `yaml:"command"`
	Quality    string `yaml:"quality"`
	MediaDir   string `yaml:"media_dir"`
	SceneClass string `yaml:"scene_class"`
	WorkDir    string `yaml:"work_dir"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	Validate   bool   `yaml:"validate"`
}

// ConcatConfig configures the output aggregator.
type ConcatConfig struct {
	Command string `yaml:"command"`
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
}

// LedgerConfig selects the run ledger database. An empty DSN means the
// SQLite file under the state directory.
type LedgerConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig configures the slog handlers.
type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Journal bool   `yaml:"journal"`
}
