// Package config loads, normalizes, and validates MemoryAtlas configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, accepts the older flat config.yaml layout, and
// honours .env files plus environment fallbacks such as
// MEMORYATLAS_LLM_API_KEY and OLLAMA_HOST. Paths derived from the data
// directory are filled in during normalization so downstream code never has
// to guess where the database or transcripts live.
package config
