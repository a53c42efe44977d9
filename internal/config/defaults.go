package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values. The default source is the public 3MdBs
// MySQL server.
const (
	DefaultSourceType   = "mysql"
	DefaultDatabase     = "3MdBs"
	DefaultReference    = "Allen08"
	DefaultTimeout      = 30 * time.Second
	DefaultMySQLPort    = 3306
	DefaultPostgresPort = 5432
)

// networkPorts maps the server-backed source types to their default port.
var networkPorts = map[string]int{
	"mysql":    DefaultMySQLPort,
	"postgres": DefaultPostgresPort,
}

// ApplySourceDefaults fills unset fields of s from its type.
func ApplySourceDefaults(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Type = strings.ToLower(s.Type)
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}

	if port, ok := networkPorts[s.Type]; ok {
		if s.Port == 0 {
			if p, err := strconv.Atoi(os.Getenv("MdB_PORT")); err == nil {
				s.Port = p
			} else {
				s.Port = port
			}
		}
		if s.Database == "" {
			s.Database = DefaultDatabase
		}
	}
}
