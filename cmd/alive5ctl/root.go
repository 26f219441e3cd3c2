package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/app"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/aradsms/alive5_connector/internal/alive5_connector/provider"
	"github.com/aradsms/alive5_connector/internal/platform/config"
	"github.com/aradsms/alive5_connector/internal/platform/logger"

	"github.com/spf13/cobra"
)

// cliNodeID scopes the directory cache for a single CLI invocation.
const cliNodeID = "alive5ctl"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "alive5ctl",
		Short:        "Inspect Alive5 channels and send SMS from the command line",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.defaults.yaml (optional).")
	cmd.PersistentFlags().String("api-key", "", "Alive5 API key (overrides APP_ALIVE5_API_KEY).")
	cmd.PersistentFlags().String("base-url", "", "Alive5 API base URL (overrides APP_ALIVE5_BASE_URL).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (defaults to warn).")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("json", false, "Print results as JSON.")

	cmd.AddCommand(newChannelsCmd())
	cmd.AddCommand(newAgentsCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newCheckCredentialsCmd())
	return cmd
}

type cliRuntime struct {
	creds   domain.Credentials
	logger  *slog.Logger
	client  *provider.Alive5Client
	options *app.OptionsService
	asJSON  bool
}

// runtimeFromCmd loads the service config and lets explicit flags win over it.
func runtimeFromCmd(cmd *cobra.Command) (*cliRuntime, error) {
	cfg, err := config.Load(flagString(cmd, "config-dir"), "config.defaults")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f := cmd.Flag("api-key"); f != nil && f.Changed {
		cfg.Alive5APIKey = f.Value.String()
	}
	if f := cmd.Flag("base-url"); f != nil && f.Changed {
		cfg.Alive5BaseURL = f.Value.String()
	}
	if strings.TrimSpace(cfg.Alive5APIKey) == "" {
		return nil, fmt.Errorf("an Alive5 API key is required (--api-key or APP_ALIVE5_API_KEY)")
	}

	level := flagString(cmd, "log-level")
	if level == "" {
		level = "warn"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, flagString(cmd, "log-format"))

	client := provider.NewAlive5Client(log, &http.Client{Timeout: cfg.HTTPTimeout()})
	asJSON, _ := cmd.Flags().GetBool("json")
	return &cliRuntime{
		creds:   domain.Credentials{APIKey: cfg.Alive5APIKey, BaseURL: cfg.Alive5BaseURL},
		logger:  log,
		client:  client,
		options: app.NewOptionsService(client, client, app.NewDirectoryCache(cfg.DirectoryCacheTTL()), log),
		asJSON:  asJSON,
	}, nil
}

func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f.Value.String())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
