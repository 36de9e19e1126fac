// Package config loads, normalizes, and validates the taggenius TOML
// configuration. Load applies defaults first, then overlays the file (if one
// exists), expands ~ in paths, and validates the result so the rest of the
// program can trust every field.
package config
