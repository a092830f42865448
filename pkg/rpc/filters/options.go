// Package filters ships the built-in cross-cutting filters and the name
// registry the chain builder resolves configured pipelines against.
package filters

import (
	"fmt"
	"strconv"
	"time"
)

// Options carries per-filter configuration as parsed from chain config.
type Options map[string]string

// String returns the option under key, or def when absent.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return def
}

// Float returns the option under key parsed as float64, or def when absent.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return f, nil
}

// Int returns the option under key parsed as int, or def when absent.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return i, nil
}

// Duration returns the option under key parsed as a time.Duration, or def
// when absent.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return d, nil
}

// Bool returns the option under key parsed as a bool, or def when absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %q: %w", key, err)
	}
	return b, nil
}

// StringList returns the option under key split on commas, or nil when
// absent.
func (o Options) StringList(key string) []string {
	v, ok := o[key]
	if !ok || v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
