package config

import (
	"os"
	"regexp"
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnv replaces ${VAR} with the value of VAR. Unset variables expand to
// the empty string so that the adapter reports them as missing.
func ExpandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// ExpandSourceEnv expands environment references in the connection fields.
func ExpandSourceEnv(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Path = ExpandEnv(s.Path)
	s.Host = ExpandEnv(s.Host)
	s.Database = ExpandEnv(s.Database)
	s.User = ExpandEnv(s.User)
	s.Password = ExpandEnv(s.Password)
	for k, v := range s.Options {
		s.Options[k] = ExpandEnv(v)
	}
}
