package dcmio

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/b71729/dcmio/dictionary"
)

/*
===============================================================================
    Configuration
===============================================================================
*/

// RootUID contains the designated root UID prefix for identifiers generated by dcmio
const RootUID = "1.2.826.0.1.3680043.9.7484."

// Version equals the current (or aimed for) version of the software.
// It is used commonly in creating ImplementationClassUID(0002,0012)
const Version = "0.2"

// DefaultMaterializeThreshold is the pixel data length above which values are left unread until needed
const DefaultMaterializeThreshold = 8192

// Config represents the package configuration
type Config struct {
	Version       string
	OpenFileLimit int
	RootUID       string
	LogLevel      string
	/* By enabling `StrictMode`, the parser will reject inputs which either:
	   - Contain an explicit VR code that is not recognised
	   - Contain tags that do not ascend in stream order
	*/
	StrictMode bool

	// MaterializeThreshold is the byte length above which pixel data is parsed as NotLoaded
	MaterializeThreshold int64

	// ReadBufferSize is the number of bytes read ahead from the source when parsing
	ReadBufferSize int

	// do not access / write `_set`. It is used internally.
	_set bool
}

// intFromEnv retrieves `key` from the OS environment.
// if the key is not found, or cannot be expressed as an integer,
// `found` will be false.
func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		found = false
	}
	return
}

func intFromEnvDefault(key string, def int) (val int) {
	val, found := intFromEnv(key)
	if !found {
		val = def
	}
	return
}

func strFromEnvDefault(key string, def string) string {
	if val, found := os.LookupEnv(key); found {
		return val
	}
	return def
}

func boolFromEnv(key string) (val bool, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		found = false
	}
	return
}

func boolFromEnvDefault(key string, def bool) (val bool) {
	val, found := boolFromEnv(key)
	if !found {
		val = def
	}
	return
}

var (
	config   Config
	configMu sync.Mutex
)

// configFromEnv builds a Config from the environment, falling back to defaults
func configFromEnv() (Config, error) {
	c := Config{
		Version:              Version,
		RootUID:              RootUID,
		OpenFileLimit:        intFromEnvDefault("DCMIO_OPENFILELIMIT", 64),
		StrictMode:           boolFromEnvDefault("DCMIO_STRICTMODE", false),
		MaterializeThreshold: int64(intFromEnvDefault("DCMIO_MATERIALIZE_THRESHOLD", DefaultMaterializeThreshold)),
		ReadBufferSize:       intFromEnvDefault("DCMIO_BUFFERSIZE", 64*1024),
		LogLevel:             strings.ToLower(strFromEnvDefault("DCMIO_LOGLEVEL", "info")),
	}
	if !validLogLevel(c.LogLevel) {
		return c, fmt.Errorf(`invalid DCMIO_LOGLEVEL %q: choose from "debug", "info", "warn", "error" or "none"`, c.LogLevel)
	}
	if c.OpenFileLimit < 1 {
		c.OpenFileLimit = 1
	}
	if c.ReadBufferSize < 512 {
		c.ReadBufferSize = 512
	}
	return c, nil
}

// GetConfig returns the package configuration.
// Will set from environment if not already set. An invalid log level is reported
// once and replaced with "info".
func GetConfig() Config {
	configMu.Lock()
	defer configMu.Unlock()
	if !config._set {
		c, err := configFromEnv()
		if err != nil {
			c.LogLevel = "info"
			defer Warnf("%v; using %q", err, c.LogLevel)
		}
		SetLoggingLevel(c.LogLevel)
		c._set = true
		config = c
	}
	return config
}

// OverrideConfig overrides the configuration parsed from environment with the one provided
func OverrideConfig(newconfig Config) {
	configMu.Lock()
	defer configMu.Unlock()
	if !newconfig._set { // to prevent being reverted with subsequent calls to `GetConfig`
		newconfig._set = true
	}
	if newconfig.LogLevel != "" {
		SetLoggingLevel(newconfig.LogLevel)
	}
	config = newconfig
}

/*
===============================================================================
    Parse Options
===============================================================================
*/

// parseConfig holds the effective settings of one parse
type parseConfig struct {
	dict       *dictionary.Dictionary
	threshold  int64
	strict     bool
	bufferSize int
}

// ParseOption configures the behaviour of Parse, ParseBytes and ParseFile,
// overriding the package Config for that call.
type ParseOption func(*parseConfig)

// WithDictionary parses using `d` instead of the default dictionary
func WithDictionary(d *dictionary.Dictionary) ParseOption {
	return func(pc *parseConfig) {
		pc.dict = d
	}
}

// WithMaterializeThreshold sets the pixel data length above which the value is left unread
func WithMaterializeThreshold(n int64) ParseOption {
	return func(pc *parseConfig) {
		pc.threshold = n
	}
}

// WithStrictMode enables or disables strict parsing for this call
func WithStrictMode(strict bool) ParseOption {
	return func(pc *parseConfig) {
		pc.strict = strict
	}
}

// WithReadBufferSize sets the read-ahead window used while parsing
func WithReadBufferSize(n int) ParseOption {
	return func(pc *parseConfig) {
		if n >= 512 {
			pc.bufferSize = n
		}
	}
}

func newParseConfig(opts []ParseOption) parseConfig {
	c := GetConfig()
	pc := parseConfig{
		dict:       dictionary.Default(),
		threshold:  c.MaterializeThreshold,
		strict:     c.StrictMode,
		bufferSize: c.ReadBufferSize,
	}
	for _, opt := range opts {
		opt(&pc)
	}
	if pc.bufferSize < 512 {
		pc.bufferSize = 512
	}
	return pc
}
