package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/types"
)

var errLoginRejected = errors.New("login rejected")

func newLoginCmd(a *app) *cobra.Command {
	var wallet, walletType string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a wallet address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wallet = strings.TrimSpace(wallet)
			if wallet == "" {
				return fmt.Errorf("--wallet is required")
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			// A stale token must not be sent with the login request.
			if err := st.ClearAuth(ctx); err != nil {
				return err
			}
			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			resp, err := platform.Auth.Login(ctx, wallet)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if !resp.Success || resp.Data.Token == "" {
				return fmt.Errorf("%w: %s", errLoginRejected, resp.Message)
			}

			user := resp.Data.User
			rec, err := st.SaveAuth(ctx, types.AuthRecord{
				WalletAddress: wallet,
				TokenValue:    resp.Data.Token,
				User:          &user,
				WalletType:    walletType,
			})
			if err != nil {
				return fmt.Errorf("save login: %w", err)
			}
			a.log.Info("logged in", "wallet", rec.WalletAddress, "wallet_type", rec.WalletType)
			fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("登录成功！"))
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet address")
	cmd.Flags().StringVar(&walletType, "wallet-type", "", "Wallet name used for reconnection")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	var keepChat bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ClearAuth(ctx); err != nil {
				return err
			}
			if !keepChat {
				if err := st.ClearTranscript(ctx, chatTranscript); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "已退出登录")
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepChat, "keep-chat", false, "Keep the chat transcript")
	return cmd
}
