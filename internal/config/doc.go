// Package config loads, normalizes, and validates ytbili configuration.
//
// Configuration is read from TOML (default ~/.config/ytbili/config.toml, then
// ./ytbili.toml), expanded so every path is absolute, overlaid with secrets
// from the environment, and validated before any daemon or CLI work starts.
// CreateSample writes the embedded sample file used by `ytbili config init`.
package config
