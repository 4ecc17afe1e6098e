// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each configuration type is parsed once per process and cached, so
// independent packages sharing a config type agree on its values.
//
//	var cfg session.Config
//	config.MustLoad(&cfg)
package config
