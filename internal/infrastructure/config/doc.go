// Package config provides configuration loading for Bitswitch Core.
//
// Configuration is loaded from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. BITSWITCH_* environment variables (secrets, deployment overrides)
//
// Secrets (JWT secret, admin password, wallet API key, telemetry token)
// should always come from the environment rather than the file.
package config
