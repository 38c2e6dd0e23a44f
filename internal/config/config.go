// Package config provides configuration loading from environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/usestring/typepaste/pkg/types"
)

// Input limit defaults
const (
	MaxSampleBytesValue     = 5 << 20
	MaxSamplesValue         = 64
	QueryCacheMaxItemsValue = 128
	LoadWorkersValue        = 8
)

// Config holds defaults shared by the CLI and the MCP server. Flags and tool
// arguments override the render defaults per call.
type Config struct {
	// Render defaults
	DefaultLanguage     string // DEFAULT_LANGUAGE, default "typescript"
	DefaultIndent       string // DEFAULT_INDENT, default four spaces
	DefaultTypesOnly    bool   // DEFAULT_TYPES_ONLY, default false
	DefaultRootName     string // DEFAULT_ROOT_NAME, default "Root"
	DefaultAllowUntyped bool   // DEFAULT_ALLOW_UNTYPED, default false

	// Input limits
	MaxSampleBytes     int // MAX_SAMPLE_BYTES, default 5 MiB
	MaxSamples         int // MAX_SAMPLES, default 64
	QueryCacheMaxItems int // QUERY_CACHE_MAX_ITEMS, default 128
	LoadWorkers        int // LOAD_WORKERS, default 8

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		DefaultLanguage:     getEnvString("DEFAULT_LANGUAGE", string(types.LangTypeScript)),
		DefaultIndent:       getEnvIndent("DEFAULT_INDENT", types.DefaultIndent),
		DefaultTypesOnly:    getEnvBool("DEFAULT_TYPES_ONLY", false),
		DefaultRootName:     getEnvString("DEFAULT_ROOT_NAME", "Root"),
		DefaultAllowUntyped: getEnvBool("DEFAULT_ALLOW_UNTYPED", false),

		MaxSampleBytes:     getEnvInt("MAX_SAMPLE_BYTES", MaxSampleBytesValue),
		MaxSamples:         getEnvInt("MAX_SAMPLES", MaxSamplesValue),
		QueryCacheMaxItems: getEnvInt("QUERY_CACHE_MAX_ITEMS", QueryCacheMaxItemsValue),
		LoadWorkers:        getEnvInt("LOAD_WORKERS", LoadWorkersValue),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// LoadEnvFile copies variables from a dotenv file into the environment
// before Load reads it. Variables already set win, and a missing file is
// not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RenderDefaults returns render options filled from the configured defaults.
// An unknown DEFAULT_LANGUAGE is passed through so rendering reports it.
func (c *Config) RenderDefaults() types.RenderOptions {
	lang, ok := types.ParseLanguage(c.DefaultLanguage)
	if !ok {
		lang = types.Language(c.DefaultLanguage)
	}
	return types.RenderOptions{
		Language:     lang,
		Indent:       c.DefaultIndent,
		TypesOnly:    c.DefaultTypesOnly,
		AllowUntyped: c.DefaultAllowUntyped,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvIndent accepts a literal indent or shorthand: "tab", or a number of
// spaces.
func getEnvIndent(key, defaultVal string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal
	}
	return ParseIndent(v)
}

// ParseIndent turns "tab", "\t" or a space count into an indent string.
// Anything else is returned unchanged.
func ParseIndent(s string) string {
	switch s {
	case "tab", `\t`:
		return "\t"
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 16 {
		b := make([]byte, n)
		for i := range b {
			b[i] = ' '
		}
		return string(b)
	}
	return s
}
