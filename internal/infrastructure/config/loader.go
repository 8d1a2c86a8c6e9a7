package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrUnknownScene is returned when no scene config exists for a name
var ErrUnknownScene = errors.New("unknown scene")

// Config holds all loaded configurations
type Config struct {
	App   *AppConfig
	Scene *SceneConfig
}

// Loader loads configuration from JSON files using fs.FS interface
type Loader struct {
	fsys     fs.FS
	basePath string
}

// NewLoader creates a new config loader from filesystem path
func NewLoader(basePath string) *Loader {
	return &Loader{
		fsys:     os.DirFS(basePath),
		basePath: basePath,
	}
}

// NewFSLoader creates a new config loader from fs.FS
func NewFSLoader(fsys fs.FS, basePath string) *Loader {
	return &Loader{
		fsys:     fsys,
		basePath: basePath,
	}
}

// LoadApp loads app.json
func (l *Loader) LoadApp() (*AppConfig, error) {
	data, err := fs.ReadFile(l.fsys, "app.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read app.json: %w", err)
	}

	cfg := DefaultApp()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse app.json: %w", err)
	}

	return cfg, nil
}

// LoadScene loads a scene JSON file
func (l *Loader) LoadScene(name string) (*SceneConfig, error) {
	path := "scenes/" + name + ".json"
	data, err := fs.ReadFile(l.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", name, err)
	}

	var cfg SceneConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", name, err)
	}

	return &cfg, nil
}

// LoadAll loads app.json, applies env overrides and loads the active scene.
// A non-empty sceneName wins over both.
func (l *Loader) LoadAll(env Env, sceneName string) (*Config, error) {
	app, err := l.LoadApp()
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(app, env); err != nil {
		return nil, err
	}
	if sceneName != "" {
		app.Scene = sceneName
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}

	scene, err := l.LoadScene(app.Scene)
	if err != nil {
		return nil, err
	}

	return &Config{
		App:   app,
		Scene: scene,
	}, nil
}

// DefaultApp returns the settings used for keys missing from app.json
func DefaultApp() *AppConfig {
	return &AppConfig{
		Display: DisplayConfig{
			ScreenWidth:  1280,
			ScreenHeight: 720,
			Scale:        1,
			Framerate:    60,
		},
		Renderer: RendererConfig{
			ImageCount:  3,
			ColorFormat: "B8G8R8A8_SRGB",
			DepthFormat: "D32_SFLOAT",
			ClearColor:  [4]float64{0, 0, 0, 1},
		},
		Paths: PathsConfig{
			Shaders:     "shaders",
			Textures:    "textures",
			Meshes:      "meshes",
			Fonts:       "fonts",
			Screenshots: "screenshots",
			Captures:    "captures",
		},
		Font: FontConfig{
			Size:  18,
			Color: 0xff00ffff,
		},
		Scene: "colors",
	}
}

// Validate checks the invariants the host relies on
func (c *AppConfig) Validate() error {
	if c.Display.ScreenWidth <= 0 || c.Display.ScreenHeight <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", c.Display.ScreenWidth, c.Display.ScreenHeight)
	}
	if c.Display.Framerate <= 0 {
		return fmt.Errorf("invalid framerate %d", c.Display.Framerate)
	}
	if c.Renderer.ImageCount < 2 || c.Renderer.ImageCount > 4 {
		return fmt.Errorf("imageCount must be within [2,4], got %d", c.Renderer.ImageCount)
	}
	if c.Scene == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownScene)
	}
	return nil
}
