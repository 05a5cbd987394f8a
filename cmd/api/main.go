package main

import (
	"github.com/anime-shed/document-verification-go/internal/config"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/server"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	if err := server.Run(cfg); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
}
