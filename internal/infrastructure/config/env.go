package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment keys understood by ApplyEnv
const (
	EnvScene      = "LIGHTSCENES_SCENE"
	EnvVSync      = "LIGHTSCENES_VSYNC"
	EnvWidth      = "LIGHTSCENES_WIDTH"
	EnvHeight     = "LIGHTSCENES_HEIGHT"
	EnvImageCount = "LIGHTSCENES_IMAGE_COUNT"
)

// Env looks up an environment variable
type Env func(key string) (string, bool)

// OSEnv reads the process environment
func OSEnv() Env {
	return os.LookupEnv
}

// MapEnv serves lookups from a map. Useful for tests.
func MapEnv(m map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides app settings from the environment
func ApplyEnv(cfg *AppConfig, env Env) error {
	if env == nil {
		return nil
	}

	if v, ok := env(EnvScene); ok && v != "" {
		cfg.Scene = v
	}
	if v, ok := env(EnvVSync); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvVSync, err)
		}
		cfg.Renderer.VSync = b
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &cfg.Display.ScreenWidth},
		{EnvHeight, &cfg.Display.ScreenHeight},
		{EnvImageCount, &cfg.Renderer.ImageCount},
	}
	for _, it := range ints {
		v, ok := env(it.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", it.key, err)
		}
		*it.dst = n
	}

	return nil
}
