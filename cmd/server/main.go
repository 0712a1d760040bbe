package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/bxrne/sledline/internal/config"
	"github.com/bxrne/sledline/internal/logger"
	"github.com/bxrne/sledline/internal/track"
)

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Printf("Critical error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger(cfg.Logging.Level)

	eng, err := track.BuildEngine(cfg.Simulation.TrackFile, cfg.Simulation.LRA, cfg.Simulation.GridVersion)
	if err != nil {
		log.Fatal("Failed to build engine", "track", cfg.Simulation.TrackFile, "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.LoggingMiddleware(log))

	NewHandler(eng, log).Register(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Server listening", "addr", addr, "track", cfg.Simulation.TrackFile)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
