// Package config loads typed configuration structs from environment
// variables. Field tags follow github.com/caarlos0/env conventions:
//
//	type PostgresConfig struct {
//		ConnString string `env:"PG_CONN_URL,required"`
//		PoolSize   int    `env:"PG_POOL_SIZE" envDefault:"10"`
//	}
//
//	var cfg PostgresConfig
//	config.MustLoad(&cfg)
//
// A .env file in the working directory is loaded once, before the first
// parse, which keeps local development close to the deployed setup.
package config
