package main

import (
	"context"
	"log"

	"petguide-backend/internal/shared/config"
	"petguide-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	gw, err := server.BuildGateway(context.Background(), cfg)
	if err != nil {
		log.Fatalf("gateway init error: %v", err)
	}

	r := server.NewRouter(cfg, gw)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (provider=%s)", addr, cfg.LLMProvider)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
