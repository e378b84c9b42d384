// Package config provides configuration structures and utilities for aiflavor.
// It defines the scan options (collector, timeouts, batch size, language),
// report format selection, the record store location, and the per-site
// settings read from .aiflavor.yaml.
package config
