// Package config loads and validates the primitives server configuration.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from the environment, and validated as a whole so that every
// problem is reported at once.
//
//	cfg, err := config.LoadConfigWithEnvOverrides("primitives.yaml")
//
// # Environment Variable Overrides
//
// Ambient sections can be overridden with PRIMITIVES_SECTION_FIELD variables:
//
//   - PRIMITIVES_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PRIMITIVES_STATS_BACKEND overrides stats.backend
//   - PRIMITIVES_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Named caches, limiters, queues, and balancers come from the file only.
//
// # Hot Reload
//
// Watcher observes the file and hands each valid new Config to a callback.
// Invalid edits are logged and ignored.
package config
