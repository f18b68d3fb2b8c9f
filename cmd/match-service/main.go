package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/bootstrap"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/config"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

func main() {
	lg, err := logger.NewLoggerWithOptions("match-service", os.Getenv("LOG_LEVEL"), os.Getenv("LOG_DIR"))
	if err != nil {
		log.Fatalln("failed to create logger:", err)
	}
	defer lg.Close()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, cfg, lg); err != nil {
		lg.Fatal(logger.Entry{
			Action:  "match_service_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}
