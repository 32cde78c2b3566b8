package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/config"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/market"
)

// newLocalnetApp opens the persisted local ledger. It fails unless the
// config selects the localnet backend.
func newLocalnetApp(ctx context.Context) (*app, error) {
	a, err := newOfflineApp()
	if err != nil {
		return nil, err
	}
	if a.cfg.Ledger != config.LedgerLocalnet {
		return nil, tyerrors.NewConfigError("localnet commands need \"ledger\": \"localnet\" in the config")
	}
	if err := a.openLedger(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func localnetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localnet",
		Short: "Seed accounts on the local ledger",
	}

	cmd.AddCommand(
		airdropCmd(),
		createMintCmd(),
		createTokenAccountCmd(),
		balanceCmd(),
	)
	return cmd
}

func airdropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <address> <sol>",
		Short: "Credit lamports to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parsePublicKey("address", args[0])
			if err != nil {
				return err
			}
			lamports, err := market.ParseSOL(args[1])
			if err != nil {
				return err
			}
			if !lamports.IsUint64() {
				return tyerrors.NewValidationError("amount does not fit in u64 lamports")
			}

			a, err := newLocalnetApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.net.Airdrop(cmd.Context(), addr, lamports.Uint64()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "airdropped %s SOL to %s\n", market.FormatLamports(lamports.Uint64()), addr)
			return nil
		},
	}
}

func createMintCmd() *cobra.Command {
	var (
		supply    uint64
		decimals  uint8
		authority string
	)

	cmd := &cobra.Command{
		Use:   "create-mint [address]",
		Short: "Create a token mint (a fresh address when none is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint := solana.NewWallet().PublicKey()
			if len(args) == 1 {
				var err error
				if mint, err = parsePublicKey("address", args[0]); err != nil {
					return err
				}
			}
			var authorityKey *solana.PublicKey
			if authority != "" {
				key, err := parsePublicKey("authority", authority)
				if err != nil {
					return err
				}
				authorityKey = &key
			}

			a, err := newLocalnetApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.net.CreateMint(cmd.Context(), mint, supply, decimals, authorityKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mint.String())
			return nil
		},
	}

	cmd.Flags().Uint64Var(&supply, "supply", 1, "Total supply")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "Decimals")
	cmd.Flags().StringVar(&authority, "authority", "", "Mint authority (none when empty)")
	return cmd
}

func createTokenAccountCmd() *cobra.Command {
	var (
		mintArg, ownerArg string
		amount            uint64
	)

	cmd := &cobra.Command{
		Use:   "create-token-account [address]",
		Short: "Create a token account (a fresh address when none is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := solana.NewWallet().PublicKey()
			if len(args) == 1 {
				var err error
				if addr, err = parsePublicKey("address", args[0]); err != nil {
					return err
				}
			}
			mint, err := parsePublicKey("mint", mintArg)
			if err != nil {
				return err
			}
			owner, err := parsePublicKey("owner", ownerArg)
			if err != nil {
				return err
			}

			a, err := newLocalnetApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.net.CreateTokenAccount(cmd.Context(), addr, mint, owner, amount); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&mintArg, "mint", "", "Token mint")
	cmd.Flags().StringVar(&ownerArg, "owner", "", "Account owner")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Initial token amount")
	cmd.MarkFlagRequired("mint")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <token-account>",
		Short: "Print the token amount of a token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parsePublicKey("token-account", args[0])
			if err != nil {
				return err
			}

			a, err := newLocalnetApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			amount, err := a.net.TokenBalance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), amount)
			return nil
		},
	}
}
