package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

var validLogFormats = map[string]struct{}{
	"json": {}, "text": {},
}

// Validate checks the configuration for values the reader cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SAP.URL) == "" {
		return fmt.Errorf("sap.url is required")
	}
	if !strings.HasPrefix(c.SAP.URL, "http://") && !strings.HasPrefix(c.SAP.URL, "https://") {
		return fmt.Errorf("sap.url must start with http:// or https://, got %q", c.SAP.URL)
	}
	if strings.TrimSpace(c.SAP.Client) == "" {
		return fmt.Errorf("sap.client is required")
	}
	if c.SAP.Timeout < 0 {
		return fmt.Errorf("sap.timeout must not be negative")
	}

	if c.Query.Delimiter == "" {
		return fmt.Errorf("query.delimiter must not be empty")
	}
	if c.Query.MaxRows < 0 {
		return fmt.Errorf("query.max_rows must not be negative")
	}
	if c.Query.BatchRows < 0 {
		return fmt.Errorf("query.batch_rows must not be negative")
	}
	if c.Query.ChunkRows < 1 {
		return fmt.Errorf("query.chunk_rows must be at least 1")
	}
	if strings.TrimSpace(c.Query.ReadFunction) == "" {
		return fmt.Errorf("query.read_function is required")
	}

	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}
