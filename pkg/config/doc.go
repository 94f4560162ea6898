// Package config loads application configuration from EDUPULSE_*
// environment variables with validated defaults. All knobs have safe
// defaults so a bare process starts with the built-in threat signatures,
// an in-process rate limiter, and stdout audit logging.
package config
