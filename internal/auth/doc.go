// Package auth handles operator authentication.
//
// A single operator account, configured by password, exchanges a login
// for a short-lived HS256 JWT. Device-scoped API calls authenticate with
// the per-device admin key instead; that check lives in the API layer.
package auth
