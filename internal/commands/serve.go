package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/api"
	"github.com/movelearn/tutor/pkg/api/service"
	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/llm/factory"

	_ "github.com/movelearn/tutor/pkg/api/docs" // Swagger docs
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr string
		dev  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the AI assistant API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if dev {
				cfg.DevMode = true
			}

			provider, opts, err := factory.NewProvider(ctx, cfg)
			if err != nil {
				a.log.Error("failed to create llm provider", "error", err)
				return fmt.Errorf("create llm provider: %w", err)
			}
			gateway := llm.NewGateway(provider, opts)
			a.log.Info("llm provider ready", "provider", gateway.ProviderID(), "model", opts.Model)

			srv := api.NewServer(api.Config{
				Addr:       cfg.HTTP.Addr,
				APIKey:     cfg.HTTP.APIKey,
				DailyLimit: cfg.HTTP.DailyLimit,
				DevMode:    cfg.DevMode,
				Provider:   gateway.ProviderID(),
			}, service.NewAssistantService(gateway, a.log), a.log)

			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development features like Swagger UI")
	return cmd
}
