package config

import "os"

// Keys read by the commands.
const (
	KeyAuthorName      = "author.name"
	KeyAuthorEmail     = "author.email"
	KeyProjectName     = "project.name"
	KeyEventsLogSize   = "events_log_size"
	KeyEditor          = "editor"
	KeyCommentMarker   = "comment_marker"
	KeyS3Region        = "s3.region"
	KeyS3AccessKeyID   = "s3.access_key_id"
	KeyS3SecretKey     = "s3.secret_access_key"
	KeyS3Endpoint      = "s3.endpoint"
	DefaultEventsLog   = "80"
	DefaultCommentMark = "#"
)

// DefaultValues returns the default config map for the core keys.
func DefaultValues() map[string]string {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return map[string]string{
		KeyEventsLogSize: DefaultEventsLog,
		KeyEditor:        editor,
		KeyCommentMarker: DefaultCommentMark,
	}
}

// ApplyDefaults fills any missing core keys in s with their default
// values. Defaults are never written back to disk.
func ApplyDefaults(s Store) {
	all := s.All()
	for k, v := range DefaultValues() {
		if _, exists := all[k]; !exists {
			s.SetInMemory(k, v)
		}
	}
}
