package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/lightscenes/internal/application/capture"
	"github.com/younwookim/lightscenes/internal/application/game"
	"github.com/younwookim/lightscenes/internal/application/host"
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/profile"
	"github.com/younwookim/lightscenes/internal/application/replay"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/application/scene/basiclighting"
	"github.com/younwookim/lightscenes/internal/application/scene/colors"
	"github.com/younwookim/lightscenes/internal/application/scene/nop"
	"github.com/younwookim/lightscenes/internal/application/scene/testscene"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
	"github.com/younwookim/lightscenes/internal/infrastructure/render"
)

func registry() *scene.Registry {
	r := scene.NewRegistry()
	r.Register(nop.Name, nop.New)
	r.Register(colors.Name, colors.New)
	r.Register(basiclighting.Name, basiclighting.New)
	r.Register(testscene.Name, testscene.New)
	return r
}

func main() {
	sceneFlag := flag.String("scene", "", "Scene to run (overrides app.json and LIGHTSCENES_SCENE)")
	assetsFlag := flag.String("assets", "", "Asset directory on disk (defaults to the embedded assets)")
	envFlag := flag.String("env", ".env", "Dotenv file with LIGHTSCENES_* overrides")
	recordFlag := flag.String("record", "", "Record input to file (e.g., -record replay.json)")
	replayFlag := flag.String("replay", "", "Play back recorded input and exit when it ends")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger, err := log.NewLogger(true, *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *sceneFlag, *assetsFlag, *envFlag, *recordFlag, *replayFlag); err != nil {
		logger.Errorw("exiting", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(logger *log.Logger, sceneName, assetDir, envFile, recordFile, replayFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	var fsys fs.FS
	if assetDir != "" {
		fsys = os.DirFS(assetDir)
	} else {
		sub, err := fs.Sub(assetFS, "assets")
		if err != nil {
			return fmt.Errorf("failed to get asset subfs: %w", err)
		}
		fsys = sub
	}

	var replayer *replay.Replayer
	if replayFile != "" {
		data, err := replay.LoadReplay(replayFile)
		if err != nil {
			return err
		}
		if sceneName == "" {
			sceneName = data.Scene
		}
		replayer = replay.NewReplayer(*data)
	}

	cfg, err := config.NewFSLoader(fsys, assetDir).LoadAll(config.OSEnv(), sceneName)
	if err != nil {
		return err
	}
	app := cfg.App

	factory, err := registry().Factory(app.Scene)
	if err != nil {
		return err
	}

	dt := 1.0 / float64(app.Display.Framerate)
	var (
		source   input.Source = input.NewEbitenSource()
		recorder *replay.Recorder
	)
	switch {
	case replayer != nil:
		source = replayer
		if replayer.DT() > 0 {
			dt = replayer.DT()
		}
		logger.Infow("replaying input", "file", replayFile, "frames", replayer.TotalFrames())
	case recordFile != "":
		recorder = replay.NewRecorder(source, app.Scene, dt)
		source = recorder
		logger.Infow("recording input", "file", recordFile)
	}

	drv := render.New(render.Options{
		FS:            fsys,
		Paths:         app.Paths,
		Log:           logger.Named("render"),
		ScreenshotDir: app.Paths.Screenshots,
		Settings:      gfx.Settings{
			Width:      app.Display.ScreenWidth,
			Height:     app.Display.ScreenHeight,
			ImageCount: app.Renderer.ImageCount,
		},
	})

	h, err := host.New(host.Options{
		Config:           app,
		SceneConfig:      cfg.Scene,
		Driver:           drv,
		Scene:            factory,
		Input:            input.NewSystem(source),
		Log:              logger.Named("host"),
		Capturer:         capture.New(app.Paths.Captures),
		Profiler:         profile.New(),
		ToggleFullscreen: func() { ebiten.SetFullscreen(!ebiten.IsFullscreen()) },
	})
	if err != nil {
		return err
	}

	// Exit cleans up whatever a failed Init or Load left behind
	defer func() {
		if err := h.Exit(); err != nil {
			logger.Warnw("host exit", "error", err)
		}
	}()
	if err := h.Init(); err != nil {
		return err
	}
	if err := h.Load(); err != nil {
		return err
	}
	logger.Infow("scene loaded", "scene", app.Scene, "width", app.Display.ScreenWidth, "height", app.Display.ScreenHeight)

	g := game.New(h, drv, app.Display.ScreenWidth, app.Display.ScreenHeight)
	g.SetDT(dt)
	if replayer != nil {
		g.SetStop(replayer.Done)
	}

	ebiten.SetWindowSize(app.Display.ScreenWidth*app.Display.Scale, app.Display.ScreenHeight*app.Display.Scale)
	ebiten.SetWindowTitle("lightscenes: " + app.Scene)
	ebiten.SetTPS(app.Display.Framerate)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	runErr := ebiten.RunGame(g)

	if recorder != nil {
		if err := recorder.Save(recordFile); err != nil {
			logger.Warnw("failed to save recording", "error", err)
		} else {
			logger.Infow("recording saved", "file", recordFile, "frames", recorder.FrameCount())
		}
	}
	logger.Infow("shutting down", "frames", h.Frames())
	return runErr
}
