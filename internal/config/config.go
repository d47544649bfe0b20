// Package config loads the immutable settings snapshot consumed by the
// indexing and search core. The core never reloads configuration:
// internal/facade is handed one *Settings when it is constructed and
// passes that same snapshot to every search_context pass; settings are
// not re-read between calls. The core only reads its own snapshot at
// startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const sentinelToken = "your-token-here"

// Settings is the validated, immutable configuration snapshot.
type Settings struct {
	BatchSize             int           `toml:"batch_size"`
	MaxLinesPerBlob       int           `toml:"max_lines_per_blob"`
	MaxConcurrentUploads  int           `toml:"max_concurrent_uploads"`
	MaxRetries            int           `toml:"max_retries"`
	RetryBaseDelay        time.Duration `toml:"-"`
	RetryBaseDelaySeconds float64       `toml:"retry_base_delay_seconds"`
	BaseURL               string        `toml:"base_url"`
	Token                 string        `toml:"token"`
	TextExtensions        []string      `toml:"text_extensions"`
	ExcludePatterns       []string      `toml:"exclude_patterns"`
	WebPort               int           `toml:"web_port"`
}

// DefaultTextExtensions is the allow-list used when settings.toml omits
// one; it covers the common first-class source-file extensions.
var DefaultTextExtensions = []string{
	".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".kt", ".rs",
	".c", ".h", ".cpp", ".hpp", ".cs", ".rb", ".php", ".swift", ".scala",
	".md", ".yaml", ".yml", ".json", ".toml", ".sh", ".sql",
}

// Default returns a valid Settings snapshot with reasonable defaults,
// used when no settings.toml is present.
func Default() *Settings {
	return &Settings{
		BatchSize:             20,
		MaxLinesPerBlob:       800,
		MaxConcurrentUploads:  4,
		MaxRetries:            3,
		RetryBaseDelay:        1 * time.Second,
		RetryBaseDelaySeconds: 1.0,
		BaseURL:               "https://api.example.com",
		Token:                 "",
		TextExtensions:        append([]string(nil), DefaultTextExtensions...),
		ExcludePatterns: []string{
			"**/.git/**",
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
			"**/target/**",
			"**/__pycache__/**",
			"**/*.min.js",
		},
	}
}

// Load reads settings.toml at path, applies CLI/env overrides, and
// validates ranges. An absent file is not an error: Default() is
// returned and overrides still apply.
func Load(path string, overrides Overrides) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading settings file %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
		}
	}

	if s.RetryBaseDelaySeconds > 0 {
		s.RetryBaseDelay = time.Duration(s.RetryBaseDelaySeconds * float64(time.Second))
	}

	applyEnvOverrides(s)
	applyOverrides(s, overrides)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Overrides carries CLI-flag values that take precedence over the
// settings file.
type Overrides struct {
	BaseURL string
	Token   string
	WebPort *int
}

func applyOverrides(s *Settings, o Overrides) {
	if o.BaseURL != "" {
		s.BaseURL = o.BaseURL
	}
	if o.Token != "" {
		s.Token = o.Token
	}
	if o.WebPort != nil {
		s.WebPort = *o.WebPort
	}
}

// EnvPrefix is the fixed prefix for environment variable overrides.
const EnvPrefix = "CODECTX_"

func applyEnvOverrides(s *Settings) {
	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "TOKEN"); v != "" {
		s.Token = v
	}
	if v := os.Getenv(EnvPrefix + "BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.BatchSize = n
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_CONCURRENT_UPLOADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxConcurrentUploads = n
		}
	}
}

// ExtensionSet returns TextExtensions as a lower-cased lookup set,
// keyed the way filepath.Ext returns them (leading dot included).
func (s *Settings) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(s.TextExtensions))
	for _, ext := range s.TextExtensions {
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Validate enforces the accepted ranges for batch size, lines per
// blob, upload concurrency, retry count and retry delay, and refuses
// the placeholder sentinel token. Other fields are not checked.
func (s *Settings) Validate() error {
	if s.BatchSize < 1 || s.BatchSize > 100 {
		return fmt.Errorf("batch_size must be between 1 and 100, got %d", s.BatchSize)
	}
	if s.MaxLinesPerBlob < 100 || s.MaxLinesPerBlob > 10000 {
		return fmt.Errorf("max_lines_per_blob must be between 100 and 10000, got %d", s.MaxLinesPerBlob)
	}
	if s.MaxConcurrentUploads < 1 || s.MaxConcurrentUploads > 100 {
		return fmt.Errorf("max_concurrent_uploads must be between 1 and 100, got %d", s.MaxConcurrentUploads)
	}
	if s.MaxRetries < 1 || s.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 1 and 10, got %d", s.MaxRetries)
	}
	if s.RetryBaseDelay < 100*time.Millisecond || s.RetryBaseDelay > 60*time.Second {
		return fmt.Errorf("retry_base_delay_seconds must be between 0.1 and 60.0, got %v", s.RetryBaseDelay.Seconds())
	}
	if strings.TrimSpace(s.Token) == sentinelToken {
		return fmt.Errorf("token not configured")
	}
	return nil
}
