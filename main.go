package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"airender/internal/capture"
	"airender/internal/config"
	"airender/internal/engine"
	"airender/internal/logging"
	"airender/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("AIRENDER_CONFIG"))
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.DevMode {
		if err := utils.LoadEnv(); err != nil && !utils.IsNotFound(err) {
			log.Warn("cannot load .env", zap.Error(err))
		}
	}

	var app *App
	host := &capture.FileHost{
		ReferencePath: os.Getenv("AIRENDER_REFERENCE"),
		ViewsDir:      os.Getenv("AIRENDER_VIEWS"),
		ScenePath:     os.Getenv("AIRENDER_SCENE"),
		Open: func(_ context.Context, url string) {
			runtime.BrowserOpenURL(app.ctx, url)
		},
	}

	eng, err := engine.New(engine.Options{Config: cfg, Host: host, Logger: log})
	if err != nil {
		log.Error("cannot build engine", zap.Error(err))
		os.Exit(1)
	}
	app = NewApp(eng)

	// Create application with options
	err = wails.Run(&options.App{
		Title:  "AI Render",
		Width:  1180,
		Height: 820,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "AI Render",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		Logger:           logging.NewWailsLogger(log),
		OnStartup:        app.startup,
		OnDomReady:       app.domReady,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		log.Error("wails run failed", zap.Error(err))
	}
}
