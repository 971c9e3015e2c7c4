// Package config loads and validates the reader's configuration from flags,
// environment variables and an optional config file.
package config

import "time"

// Config is the root configuration.
type Config struct {
	SAP     SAPConfig     `mapstructure:"sap"`
	Query   QueryConfig   `mapstructure:"query"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SAPConfig holds the connection settings for the remote system's SOAP RFC
// gateway.
type SAPConfig struct {
	// URL is the HTTP(S) base of the system, e.g. https://sap.example.com:44300.
	URL      string `mapstructure:"url"`
	Client   string `mapstructure:"client"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// PasswordFile reads the password from a file; "@-" reads stdin.
	PasswordFile string `mapstructure:"password_file"`
	// PasswordPrompt asks for the password on the terminal without echo.
	PasswordPrompt bool          `mapstructure:"password_prompt"`
	Language       string        `mapstructure:"language"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// InsecureSkipVerify disables TLS certificate verification. Test
	// systems only.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// QueryConfig holds the read defaults applied when a query does not set them.
type QueryConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	// MaxRows caps rows per query; 0 means unbounded.
	MaxRows int `mapstructure:"max_rows"`
	// BatchRows, when positive, paginates reads in windows of this size.
	BatchRows int `mapstructure:"batch_rows"`
	// ChunkRows caps membership filter values per request.
	ChunkRows int `mapstructure:"chunk_rows"`
	// ReadFunction selects the table-read function module.
	ReadFunction string `mapstructure:"read_function"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}
