package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// APIKey returns the oracle credential named by llm.api_key_env. The
// environment wins; ./.env and ~/.manimator/.env are consulted next.
func (c *Config) APIKey() string {
	return LookupSecret(c.LLM.APIKeyEnv)
}

// NeedsCredentials reports whether the configured provider calls a remote API.
func (c *Config) NeedsCredentials() bool {
	return c.LLM.Provider != ProviderMock
}

// LookupSecret reads key from the environment, falling back to .env files.
func LookupSecret(key string) string {
	if key == "" {
		return ""
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	paths := []string{".env"}
	if dir, err := StateDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if v := readEnvFileVar(p, key); v != "" {
			return v
		}
	}
	return ""
}

// readEnvFileVar reads the value of a specific key from a .env file.
// Supports both "KEY=VALUE" and "export KEY=VALUE" formats, with optional
// surrounding quotes. Returns empty string if the file or key is not found.
func readEnvFileVar(path, key string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == key {
			return unquote(strings.TrimSpace(parts[1]))
		}
	}
	return ""
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
