package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/amira30til/ScanToWin-sub001/internal/app"
	"github.com/amira30til/ScanToWin-sub001/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrate := flag.Bool("migrate", false, "run schema migrations and exit")
	seedDemo := flag.Bool("seed", false, "run migrations, load demo data and exit")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *seedDemo:
		if errSeed := app.Seed(ctx, cfg); errSeed != nil {
			log.WithError(errSeed).Fatal("seed failed")
		}
	case *migrate:
		if errMigrate := app.Migrate(cfg); errMigrate != nil {
			log.WithError(errMigrate).Fatal("migrate failed")
		}
	default:
		if errRun := app.RunServer(ctx, cfg); errRun != nil {
			log.WithError(errRun).Fatal("server exited with error")
		}
	}
}
