package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var defineFlagsOnce sync.Once

// Load loads configuration from multiple sources with the following precedence:
// 1. Explicit overrides (v.Set) – used only for password file and prompt
// 2. Command line flags
// 3. Environment variables
// 4. Config file
// 5. Default values
func Load() (*Config, error) {
	v := viper.New()

	// Defaults (lowest priority)
	setDefaults(v)

	// --- Flags ---
	DefineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}

	// --- Config file ---
	cfgPath, _ := pflag.CommandLine.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("rfcread")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/rfcread/")
		v.AddConfigPath("$HOME/.rfcread")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Environment variables ---
	// Canonical keys: dot + snake_case
	// Env vars: RFCREAD_SAP_PASSWORD_FILE
	v.SetEnvPrefix("RFCREAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Flags binding (highest normal priority) ---
	bindChangedFlagsToViper(v)

	// --- Secure password input (explicit override) ---
	if v.GetString("sap.password") == "" && v.GetString("sap.password_file") != "" {
		pwd, err := readPasswordFile(v.GetString("sap.password_file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read password file: %w", err)
		}
		v.Set("sap.password", pwd)
	}
	if v.GetString("sap.password") == "" && v.GetBool("sap.password_prompt") {
		pwd, err := promptPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		v.Set("sap.password", pwd)
	}

	return unmarshal(v)
}

// unmarshal decodes the assembled settings strictly, rejecting unknown keys.
func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.UnmarshalExact(
		&cfg,
		viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()),
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(v *viper.Viper) {
	pflag.CommandLine.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := pflag.CommandLine.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := pflag.CommandLine.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := pflag.CommandLine.GetBool(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := pflag.CommandLine.GetDuration(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// DefineFlags defines the configuration flags using canonical snake_case
// keys. Callers that add their own flags call this before pflag.Parse.
func DefineFlags() {
	defineFlagsOnce.Do(func() {
		// Gateway connection flags
		pflag.String("sap.url", "", "SAP system base URL, e.g. https://sap.example.com:44300")
		pflag.String("sap.client", "", "SAP client number, e.g. 100")
		pflag.String("sap.user", "", "SAP user")
		pflag.String("sap.password", "", "SAP password")
		pflag.String("sap.password_file", "", "Path to file containing SAP password (use @- for stdin)")
		pflag.Bool("sap.password_prompt", false, "Prompt for SAP password securely")
		pflag.String("sap.language", "", "Logon language, e.g. EN")
		pflag.Duration("sap.timeout", 0, "Gateway call timeout (e.g. 2m, 30s)")
		pflag.Bool("sap.insecure_skip_verify", false, "Skip TLS certificate verification (test systems only)")

		// Query default flags
		pflag.String("query.delimiter", "", "Column delimiter inside returned row buffers")
		pflag.Int("query.max_rows", 0, "Maximum rows per query (0 = unbounded)")
		pflag.Int("query.batch_rows", 0, "Pagination window size (0 = single call)")
		pflag.Int("query.chunk_rows", 0, "Maximum membership filter values per request")
		pflag.String("query.read_function", "", "Table-read function module name")

		// Logging flags
		pflag.String("logging.level", "", "Log level (debug, info, warn, error)")
		pflag.String("logging.format", "", "Log format (json, text)")

		// Config file flag
		pflag.StringP("config", "c", "", "Config file path")
	})
}

// setDefaults sets default values (lowest precedence).
func setDefaults(v *viper.Viper) {
	// Gateway connection defaults
	v.SetDefault("sap.url", "")
	v.SetDefault("sap.client", "")
	v.SetDefault("sap.user", "")
	v.SetDefault("sap.password", "")
	v.SetDefault("sap.password_file", "")
	v.SetDefault("sap.password_prompt", false)
	v.SetDefault("sap.language", "EN")
	v.SetDefault("sap.timeout", 2*time.Minute)
	v.SetDefault("sap.insecure_skip_verify", false)

	// Query defaults
	v.SetDefault("query.delimiter", "⁂")
	v.SetDefault("query.max_rows", 50)
	v.SetDefault("query.batch_rows", 0)
	v.SetDefault("query.chunk_rows", 10000)
	v.SetDefault("query.read_function", "BBP_RFC_READ_TABLE")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// promptPassword prompts the user for a password without echoing to terminal.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter SAP password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

func readPasswordFile(path string) (string, error) {
	var data []byte
	var err error

	if path == "@-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
