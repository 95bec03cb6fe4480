package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the service settings looked up from tagsapp.yaml and
// TAGSAPP_* environment variables, with built-in defaults.
type Config struct {
	ListenAddr string
	DBPath     string
	LogDir     string
	LogFile    string
	LogLevel   int
}

func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("tagsapp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TAGSAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "../db/tags.db")
	v.SetDefault("log_dir", "../log")
	v.SetDefault("log_file", "webService.log")
	v.SetDefault("log_level", 3)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		// No config file: defaults and environment apply.
	}

	return Config{
		ListenAddr: v.GetString("listen_addr"),
		DBPath:     v.GetString("db_path"),
		LogDir:     v.GetString("log_dir"),
		LogFile:    v.GetString("log_file"),
		LogLevel:   v.GetInt("log_level"),
	}, nil
}
