package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status|reset]\n", os.Args[0])
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db.DB, command); err != nil {
		logr.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", command))
}
