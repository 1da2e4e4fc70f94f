package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/movelearn/tutor/pkg/assistant"
	"github.com/movelearn/tutor/pkg/client"
	"github.com/movelearn/tutor/pkg/config"
	"github.com/movelearn/tutor/pkg/prompt"
	"github.com/movelearn/tutor/pkg/store"
)

// app carries what every subcommand shares once flags and config are resolved.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
}

// NewRootCmd builds the root command with shared flags.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "tutor",
		Short:         "Move learning tutor",
		Long:          "Terminal client and AI assistant server of the Move learning platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to configuration file")
	flags.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("data-dir", "", "Directory holding the login and chat transcript")
	flags.String("server", "", "Platform API base URL")
	flags.String("ai-server", "", "AI assistant API base URL")

	for _, name := range []string{"config", "log-level", "data-dir", "server", "ai-server"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}
	a.v.SetEnvPrefix(config.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newHintCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newPromptCmd(a))
	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newLearnCmd(a))
	cmd.AddCommand(newCoursesCmd(a))
	cmd.AddCommand(newCourseCmd(a))
	cmd.AddCommand(newBadgesCmd(a))
	cmd.AddCommand(newCertificateCmd(a))
	cmd.AddCommand(newCompileCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newCleanCmd(a))
	cmd.AddCommand(newHealthCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load resolves the configuration: file and env through config.Load, then
// flags on top.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v.GetString("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.v.IsSet("log-level") {
		cfg.LogLevel = a.v.GetString("log-level")
	}
	if a.v.IsSet("data-dir") {
		cfg.DataDir = a.v.GetString("data-dir")
	}
	if a.v.IsSet("server") {
		cfg.Platform.BaseURL = a.v.GetString("server")
	}
	if a.v.IsSet("ai-server") {
		cfg.Platform.AIBaseURL = a.v.GetString("ai-server")
	}
	a.cfg = cfg
	a.log = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(a.log)
	return nil
}

func (a *app) openStore(ctx context.Context) (*store.FSStore, error) {
	st := store.NewFSStore(a.cfg.DataDir)
	if err := st.Open(ctx); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// platform returns the controllers of the regular API. Requests carry the
// persisted token and a 401 clears it.
func (a *app) platform(st *store.FSStore) (*client.API, error) {
	exec, err := client.NewHTTPExecutor(client.HTTPOptions{
		BaseURL:        a.cfg.Platform.BaseURL,
		Timeout:        a.cfg.Platform.Timeout,
		Tokens:         st,
		OnUnauthorized: st,
		Logger:         a.log,
		Name:           "regular",
	})
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}
	return client.NewAPI(exec), nil
}

// assistantAPI returns the assistant controller bound to the AI executor.
func (a *app) assistantAPI(st *store.FSStore) (*client.AssistantController, error) {
	exec, err := client.NewHTTPExecutor(client.HTTPOptions{
		BaseURL:        a.cfg.Platform.AIBaseURL,
		Timeout:        a.cfg.Platform.AITimeout,
		Tokens:         st,
		OnUnauthorized: st,
		Logger:         a.log,
		Name:           "ai",
	})
	if err != nil {
		return nil, fmt.Errorf("assistant client: %w", err)
	}
	return client.NewAPI(exec).Assistant, nil
}

func (a *app) newChat(st *store.FSStore, api assistant.AssistantAPI, src prompt.ContextSource, hintQuestion string) *assistant.Chat {
	if hintQuestion == "" {
		hintQuestion = a.cfg.Assistant.HintQuestion
	}
	return assistant.NewChat(assistant.ChatOptions{
		API: api,
		Prompts: prompt.NewBuilder(src, prompt.Options{
			IncludeDiff: a.cfg.Assistant.IncludeDiff,
			Logger:      a.log,
		}),
		Transcript:     st,
		HintQuestion:   hintQuestion,
		HintRetries:    a.cfg.Assistant.HintRetries,
		HintRetryDelay: a.cfg.Assistant.HintRetryDelay,
		Logger:         a.log,
	})
}
