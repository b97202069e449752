// Package config loads, normalizes, and validates RadioCalico configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DATABASE_PATH, PORT, and RADIOCALICO_ADMIN_TOKEN. The Config type gathers
// every knob the API server, the CLI client, and the terminal rating widget
// need, so the database location and stream endpoints are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
