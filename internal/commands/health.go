package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/api/dto"
	"github.com/movelearn/tutor/pkg/client"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the AI assistant API health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := client.NewHTTPExecutor(client.HTTPOptions{
				BaseURL: a.cfg.Platform.AIBaseURL,
				Timeout: a.cfg.Platform.Timeout,
				Logger:  a.log,
				Name:    "ai",
			})
			if err != nil {
				return err
			}

			body, err := exec.Execute(cmd.Context(), client.Request{URI: "/health", Method: http.MethodGet})
			if err != nil {
				return err
			}

			var resp dto.HealthResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "status=%s version=%s provider=%s\n", resp.Status, resp.Version, resp.Provider)
			return nil
		},
	}
}
