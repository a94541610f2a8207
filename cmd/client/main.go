package main

import (
	"fmt"
	"os"

	"github.com/dlevch/simplenote/internal/adapter"
	"github.com/dlevch/simplenote/internal/client"
	"github.com/dlevch/simplenote/internal/config"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/service"
	"github.com/dlevch/simplenote/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("simplenote-client")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	localStore, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(localStore, serverAdapter, cfg.Sync, log)

	app := client.NewApp(services, os.Stdin, os.Stdout, log)
	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
