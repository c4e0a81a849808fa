package main

import (
	"fmt"
	"log"
	"os"

	corecmd "github.com/m3rciful/mediabot/core/cmd"
	"github.com/m3rciful/mediabot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		Args:              os.Args[1:],
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(appCfg, app.BootstrapOptions{})
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
