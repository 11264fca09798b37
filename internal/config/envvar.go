package config

import "os"

// Environment variables overriding configuration.
const (
	EnvAuthorName  = "ISSUE_AUTHOR_NAME"
	EnvAuthorEmail = "ISSUE_AUTHOR_EMAIL"
	EnvConfigHome  = "XDG_CONFIG_HOME"
)

// ApplyEnvOverrides applies ISSUE_AUTHOR_NAME and ISSUE_AUTHOR_EMAIL
// in memory. These overrides are not persisted to the config file.
func ApplyEnvOverrides(s Store) {
	if name := os.Getenv(EnvAuthorName); name != "" {
		s.SetInMemory(KeyAuthorName, name)
	}
	if email := os.Getenv(EnvAuthorEmail); email != "" {
		s.SetInMemory(KeyAuthorEmail, email)
	}
}
