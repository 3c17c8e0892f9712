// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment using Viper.
//
//	var cfg MyConfig
//	if err := config.LoadConfig("injector-demo", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Without an explicit path, config.yml is searched under ./cmd/<service>/,
// ./config/ and the working directory. Environment variables override file
// values: LOGGING_LEVEL=debug sets logging.level.
package config
