package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookid-server/internal/auth"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		userID    string
		canManage bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token",
		Long: `Mint a PASETO access token signed with the server key.

The key comes from AUTH_KEY when set, otherwise from the key file under the
data path. A new key file is generated if none exists yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			key := cfg.Auth.AccessTokenKey
			if key == "" {
				key, err = auth.LoadOrGenerateKey(cfg.Storage.AuthKeyPath())
				if err != nil {
					return fmt.Errorf("load auth key: %w", err)
				}
			}

			tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
			if err != nil {
				return err
			}

			token, err := tokens.GenerateAccessToken(auth.Principal{
				UserID:         userID,
				CanManageBooks: canManage,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{
					"token":            token,
					"user_id":          userID,
					"can_manage_books": canManage,
					"expires_in":       cfg.Auth.AccessTokenDuration.String(),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID carried by the token")
	cmd.Flags().BoolVar(&canManage, "manage", false, "Grant book management permission")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
