package main

import (
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"github.com/chazu/molview/pkg/config"
	"github.com/chazu/molview/pkg/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("MOLVIEW_CONFIG"))
	if err != nil {
		logging.Must(config.Default().Log).Fatal("configuration rejected", zap.Error(err))
	}
	log := logging.Must(cfg.Log)
	defer log.Sync()

	app, err := NewAppWithConfig(cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	err = wails.Run(&options.App{
		Title:  "molview",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal("wails exited", zap.Error(err))
	}
}
