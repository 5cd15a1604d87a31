// Package config loads and validates the reconciler service configuration.
//
// Config is YAML with ${VAR} environment expansion. Load order:
// read file -> expand env -> unmarshal -> apply defaults -> validate.
package config
