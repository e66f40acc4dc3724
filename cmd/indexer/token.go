package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/api"
	pkgconfig "github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/spf13/cobra"
)

var (
	walletFlag string
	secretFlag string
	expiryFlag time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API access token for a wallet",
	Long: `Mint an HS256 access token for a wallet address without running the server.
The secret is taken from --secret, or from the api.auth section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(walletFlag) {
			return fmt.Errorf("invalid wallet address %q", walletFlag)
		}

		authCfg, err := tokenAuthConfig(cmd)
		if err != nil {
			return err
		}

		token, expiresAt, err := api.NewTokenIssuer(authCfg).Issue(common.HexToAddress(walletFlag))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&walletFlag, "wallet", "", "wallet address (required)")
	tokenCmd.Flags().StringVar(&secretFlag, "secret", "", "signing secret, overrides the config file")
	tokenCmd.Flags().DurationVar(&expiryFlag, "expiry", 0, "token lifetime, overrides the config file")
	_ = tokenCmd.MarkFlagRequired("wallet")
}

func tokenAuthConfig(cmd *cobra.Command) (*pkgconfig.AuthConfig, error) {
	authCfg := &pkgconfig.AuthConfig{Secret: secretFlag}

	if secretFlag == "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("no --secret given and failed to load config: %w", err)
		}
		if cfg.API == nil || cfg.API.Auth == nil || cfg.API.Auth.Secret == "" {
			return nil, errors.New("no signing secret configured")
		}
		authCfg = cfg.API.Auth
	}

	if cmd.Flags().Changed("expiry") {
		authCfg.TokenExpiry = internalcommon.NewDuration(expiryFlag)
	}

	return authCfg, nil
}
