package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"springforge/internal/gateway/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
	log.Println("Server exiting")
}
