package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	log "github.com/sirupsen/logrus"
)

const DefaultPath = "./config/application.yaml"

const envPrefix = "RATIOBUDGET_"

type Application struct {
	Server   Server   `koanf:"server"`
	Store    Store    `koanf:"store"`
	Database Database `koanf:"db"`
	Backup   Backup   `koanf:"backup"`
}

type Server struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"readtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
}

type Store struct {
	// Backend is one of sqlite, postgres, file or memory.
	Backend string `koanf:"backend"`
	Key     string `koanf:"key"`
	Path    string `koanf:"path"`
	Dir     string `koanf:"dir"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Backup struct {
	// AutoDir receives a backup file after every change. Empty disables it.
	AutoDir    string        `koanf:"autodir"`
	PreviewTTL time.Duration `koanf:"previewttl"`
}

func Defaults() Application {
	return Application{
		Server: Server{
			Addr:         "127.0.0.1:8181",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: Store{
			Backend: "sqlite",
			Key:     budget.StorageKey,
			Path:    "./data/ratiobudget.db",
			Dir:     "./data",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "ratiobudget",
			Pass:   "",
			Name:   "ratiobudget",
			Schema: "public",
		},
		Backup: Backup{
			PreviewTTL: 15 * time.Minute,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to read .env file: %v", err)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if app.Store.Key == "" {
		app.Store.Key = budget.StorageKey
	}
	return app, nil
}

// PathFromEnv returns the config file location, overridable for tests and
// containers.
func PathFromEnv() string {
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		return path
	}
	return DefaultPath
}
