package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"artemis/controllers"
	"artemis/routes"
	"artemis/sessions"
)

func newWebCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser chat UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Client.Address = addr
			}
			return a.runWeb(cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides client.address)")
	return cmd
}

func (a *app) runWeb(cmd *cobra.Command) error {
	cfg := a.cfg.Client
	if !a.logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closer, err := sessions.Open(cmd.Context(), cfg.Sessions)
	if err != nil {
		return err
	}
	defer closer.Close()

	ui := controllers.NewUIController(a.builder(), store, cfg.Sessions.TTL)
	router := routes.SetupUIRouter(ui, a.logger)

	a.logger.WithFields(logrus.Fields{
		"address":   cfg.Address,
		"relay_url": cfg.RelayURL,
		"store":     cfg.Sessions.Store,
	}).Info("chat UI starting")
	return router.Run(cfg.Address)
}
