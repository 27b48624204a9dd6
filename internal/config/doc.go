// Package config provides configuration types, loading, and hot-reload
// for the sentiment analysis service.
//
// Configuration is read from a YAML file with ${VAR} and ${VAR:-default}
// environment variable substitution. Every section has a DefaultXxxConfig
// constructor; zero-valued fields are filled with defaults before
// validation so a partial config file is always usable.
package config
