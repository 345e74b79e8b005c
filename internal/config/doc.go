// Package config loads and validates testbed configuration.
//
// Configuration is a single YAML file with strict field checking: unknown
// keys are rejected so typos fail loudly instead of silently running on
// defaults. Every field has a default, so an empty file and no file at all
// both yield a runnable configuration.
package config
