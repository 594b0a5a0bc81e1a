// Package logging provides structured logging for Bitswitch Core.
//
// It wraps Go's standard log/slog package to give consistent, structured
// logging across the daemon: JSON output for production, text for
// development, level filtering, and default service/version fields.
//
// Never log payment request tokens, admin keys, or the wallet API key.
// Log token prefixes instead when correlation is needed:
//
//	logger.Info("token minted", "token_prefix", token[:8])
package logging
