package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/checkpoint"
	"github.com/movelearn/tutor/pkg/prompt"
	"github.com/movelearn/tutor/pkg/types"
)

// loadSource reads a view snapshot. Without a path every request falls
// back to its base question.
func loadSource(path string, log *slog.Logger) (prompt.ContextSource, error) {
	if path == "" {
		return nil, nil
	}
	snap, err := checkpoint.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return checkpoint.NewExtractor(snap, nil, log), nil
}

func newHintCmd(a *app) *cobra.Command {
	var snapshot, question string
	cmd := &cobra.Command{
		Use:   "hint",
		Short: "Ask the assistant for a hint on the current checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := loadSource(snapshot, a.log)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			api, err := a.assistantAPI(st)
			if err != nil {
				return err
			}
			reply, err := a.newChat(st, api, src, question).Hint(ctx)
			return printAnswer(cmd.OutOrStdout(), reply, err)
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "View snapshot file (YAML or JSON)")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question to ask instead of the default hint request")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var snapshot, errMsg, kind, code string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the assistant why a submission failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if errMsg == "" {
				return fmt.Errorf("--error is required")
			}
			src, err := loadSource(snapshot, a.log)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			api, err := a.assistantAPI(st)
			if err != nil {
				return err
			}
			info := types.ErrorInfo{
				Message:        errMsg,
				Code:           code,
				CheckpointType: checkpointKind(src, kind),
			}
			reply, err := a.newChat(st, api, src, "").AnalyzeError(ctx, info)
			return printAnswer(cmd.OutOrStdout(), reply, err)
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "View snapshot file (YAML or JSON)")
	cmd.Flags().StringVarP(&errMsg, "error", "e", "", "Error message or compiler output")
	cmd.Flags().StringVar(&kind, "type", "", "Checkpoint type (CHOICE, TEXT, CODE); detected from the snapshot by default")
	cmd.Flags().StringVar(&code, "code", "", "Submitted code")
	return cmd
}

// checkpointKind prefers an explicit type and falls back to the snapshot.
func checkpointKind(src prompt.ContextSource, explicit string) types.CheckpointType {
	if t := types.CheckpointType(explicit); t.Valid() {
		return t
	}
	if src != nil {
		if ctx := src.Extract(); ctx != nil {
			return ctx.Type
		}
	}
	return ""
}

func newPromptCmd(a *app) *cobra.Command {
	var snapshot, question string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the request text built from a snapshot without sending it",
	}
	cmd.PersistentFlags().StringVar(&snapshot, "snapshot", "", "View snapshot file (YAML or JSON)")
	cmd.PersistentFlags().StringVarP(&question, "question", "q", "", "Base question")

	builder := func() (*prompt.Builder, error) {
		src, err := loadSource(snapshot, a.log)
		if err != nil {
			return nil, err
		}
		return prompt.NewBuilder(src, prompt.Options{
			IncludeDiff: a.cfg.Assistant.IncludeDiff,
			Logger:      a.log,
		}), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "hint",
		Short: "Print the hint request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder()
			if err != nil {
				return err
			}
			q := question
			if q == "" {
				q = a.cfg.Assistant.HintQuestion
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.Hint(q))
			return nil
		},
	})

	var errMsg string
	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Print the error analysis request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.ErrorAnalysis(errMsg, question))
			return nil
		},
	}
	analyze.Flags().StringVarP(&errMsg, "error", "e", "", "Error message or compiler output")
	cmd.AddCommand(analyze)

	return cmd
}
