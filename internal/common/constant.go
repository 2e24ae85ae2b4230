// Package common contains shared constants and sentinel errors used across
// the account service layers.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// TokenType is reported to clients alongside every issued access token.
const TokenType = "bearer"
