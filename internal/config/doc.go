// Package config is the aggregator's environment-variable
// configuration loader, adapted from the teacher's getenv helper in
// cmd/coordinator/main.go into a single Config struct so cmd/aggregator
// has one place to read settings from instead of scattering
// os.Getenv calls across main.
package config
