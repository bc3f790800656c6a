package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"artemis/client"
	"artemis/config"
)

// app carries what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *logrus.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "chat",
		Short: "Chat about a medical test report through the ARTEMIS relay",
		Long: `Front-end for the ARTEMIS relay. It keeps the conversation history and the
uploaded report, and sends the full context to the relay on every turn.

Examples:
  chat web --addr :8501
  chat repl --report ./cbc.txt`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file (defaults to $ARTEMIS_CONFIG)")

	root.AddCommand(newWebCommand(a))
	root.AddCommand(newREPLCommand(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Client.Validate(); err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) builder() *client.Builder {
	relay := client.NewRelayClient(a.cfg.Client.RelayURL, 0)
	return client.NewBuilder(relay, a.cfg.Client)
}
