package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"artemis/config"
	"artemis/routes"
	"artemis/services"
)

func main() {
	// ARTEMIS_CONFIG points at an optional YAML file.
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Refuse to start without a usable upstream configuration.
	if err := cfg.Relay.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid relay configuration")
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	completer, err := services.NewCompletionClient(cfg.Relay, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create completion client")
	}
	relay := services.NewRelayService(cfg.Relay, completer, logger)
	router := routes.SetupRouter(relay, logger)

	logger.WithFields(logrus.Fields{
		"address": cfg.Relay.Address,
		"model":   cfg.Relay.Model,
	}).Info("relay server starting")
	if err := router.Run(cfg.Relay.Address); err != nil {
		logger.WithError(err).Fatal("server failed to start")
	}
}
