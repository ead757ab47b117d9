package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of
// various types. Implementations handle retrieval and type conversion,
// returning zero values when a key is absent or malformed.
type Config interface {
	io.Closer

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves the configuration value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the configuration value associated with the given key as minutes.
	GetMinute(key string) time.Duration

	// GetArray retrieves the configuration value associated with the given key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// GetMap retrieves the configuration value associated with the given key as a map of strings to strings.
	// Configuration value is stored with format <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}
