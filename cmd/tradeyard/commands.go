package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/api"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/config"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/db"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/market"
)

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		initCmd(),
		addressesCmd(),
		listingCmd(),
		sellCmd(),
		cancelCmd(),
		buyCmd(),
		serveCmd(),
		localnetCmd(),
		versionCmd(),
	)
}

func initCmd() *cobra.Command {
	var (
		force   bool
		ledger  string
		rpcURLs []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config to the home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := filepath.Join(homeDir, constant.ConfigSubdir, constant.ConfigFileName)
			if _, err := os.Stat(configFile); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", configFile)
			}

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = homeDir
			cfg.ProgramID = programIDFlag
			if ledger != "" {
				cfg.Ledger = ledger
			}
			if len(rpcURLs) > 0 {
				cfg.RPCURLs = rpcURLs
			}

			if err := config.Save(cfg, homeDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.Flags().StringVar(&ledger, "ledger", "", "Ledger backend (rpc|localnet)")
	cmd.Flags().StringSliceVar(&rpcURLs, "rpc-url", nil, "Solana JSON-RPC endpoint (repeatable)")
	return cmd
}

func addressesCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "addresses <mint>",
		Short: "Derive the program addresses of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newOfflineApp()
			if err != nil {
				return err
			}
			mint, err := parsePublicKey("mint", args[0])
			if err != nil {
				return err
			}

			set, err := a.builder.Deriver().Derive(mint)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), newAddressesOutput(a.builder.ProgramID(), set), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func listingCmd() *cobra.Command {
	var (
		outputFormat string
		decimals     uint8
	)

	cmd := &cobra.Command{
		Use:   "listing <mint>",
		Short: "Show the active listing of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePublicKey("mint", args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			listing, err := a.service.GetListing(cmd.Context(), mint)
			if tyerrors.IsAbsent(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "item %s is not listed\n", mint)
				return nil
			}
			if err != nil {
				return err
			}
			if decimals > market.MaxDecimals {
				return tyerrors.NewValidationError(fmt.Sprintf("--decimals must be at most %d", market.MaxDecimals))
			}
			return printOutput(cmd.OutOrStdout(), newListingOutput(listing, decimals), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "Decimals of the payment mint used to render the price")
	return cmd
}

// txFlags are shared by the transaction commands.
type txFlags struct {
	keypair      string
	dryRun       bool
	outputFormat string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.keypair, "keypair", "", "Signer keypair file (default: keypair_path from config, then ~/.config/solana/id.json)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the instructions without submitting")
	cmd.Flags().StringVarP(&f.outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
}

func sellCmd() *cobra.Command {
	var (
		flags                                      txFlags
		mintArg, itemWalletArg, paymentArg, amount string
		decimals                                   uint8
	)

	cmd := &cobra.Command{
		Use:   "sell",
		Short: "List an item for sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePublicKey("mint", mintArg)
			if err != nil {
				return err
			}
			itemWallet, err := parsePublicKey("item-wallet", itemWalletArg)
			if err != nil {
				return err
			}
			payment, err := parsePublicKey("payment", paymentArg)
			if err != nil {
				return err
			}
			price, err := market.ParseAmount(amount, decimals)
			if err != nil {
				return err
			}

			if flags.dryRun {
				a, err := newOfflineApp()
				if err != nil {
					return err
				}
				seller, err := a.loadKeypair(flags.keypair)
				if err != nil {
					return err
				}
				svc := market.NewService(a.builder, nil, a.log)
				instructions, err := svc.ListInstructions(seller.PublicKey(), mint, itemWallet, payment, price)
				if err != nil {
					return err
				}
				out, err := newInstructionOutputs(instructions)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), out, flags.outputFormat)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			seller, err := a.loadKeypair(flags.keypair)
			if err != nil {
				return err
			}

			sig, err := a.service.List(cmd.Context(), seller, mint, itemWallet, payment, price)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), TransactionOutput{Kind: "sell", Mint: mint.String(), Signature: sig.String()}, flags.outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&mintArg, "mint", "", "Mint of the item to list")
	cmd.Flags().StringVar(&itemWalletArg, "item-wallet", "", "Seller token account holding the item")
	cmd.Flags().StringVar(&paymentArg, "payment", "", "Token account that receives the payment")
	cmd.Flags().StringVar(&amount, "price", "", "Price in base units of the payment mint, or a decimal amount with --decimals")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "Decimals of the payment mint, e.g. 6 to pass --price 2.25")
	cmd.MarkFlagRequired("mint")
	cmd.MarkFlagRequired("item-wallet")
	cmd.MarkFlagRequired("payment")
	cmd.MarkFlagRequired("price")
	return cmd
}

func cancelCmd() *cobra.Command {
	var (
		flags                  txFlags
		mintArg, itemWalletArg string
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a listing and take the item back",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePublicKey("mint", mintArg)
			if err != nil {
				return err
			}
			itemWallet, err := parsePublicKey("item-wallet", itemWalletArg)
			if err != nil {
				return err
			}

			if flags.dryRun {
				a, err := newOfflineApp()
				if err != nil {
					return err
				}
				seller, err := a.loadKeypair(flags.keypair)
				if err != nil {
					return err
				}
				instructions, err := market.NewService(a.builder, nil, a.log).CancelInstructions(seller.PublicKey(), mint, itemWallet)
				if err != nil {
					return err
				}
				out, err := newInstructionOutputs(instructions)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), out, flags.outputFormat)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			seller, err := a.loadKeypair(flags.keypair)
			if err != nil {
				return err
			}

			sig, err := a.service.Cancel(cmd.Context(), seller, mint, itemWallet)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), TransactionOutput{Kind: "cancel", Mint: mint.String(), Signature: sig.String()}, flags.outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&mintArg, "mint", "", "Mint of the listed item")
	cmd.Flags().StringVar(&itemWalletArg, "item-wallet", "", "Seller token account that receives the item back")
	cmd.MarkFlagRequired("mint")
	cmd.MarkFlagRequired("item-wallet")
	return cmd
}

func buyCmd() *cobra.Command {
	var (
		flags                                      txFlags
		mintArg, paymentWalletArg, itemWalletArg string
	)

	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy a listed item",
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := parsePublicKey("mint", mintArg)
			if err != nil {
				return err
			}
			paymentWallet, err := parsePublicKey("payment-wallet", paymentWalletArg)
			if err != nil {
				return err
			}
			itemWallet, err := parsePublicKey("item-wallet", itemWalletArg)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			buyer, err := a.loadKeypair(flags.keypair)
			if err != nil {
				return err
			}

			if flags.dryRun {
				instructions, _, err := a.service.BuyInstructions(cmd.Context(), buyer.PublicKey(), mint, paymentWallet, itemWallet)
				if err != nil {
					return err
				}
				out, err := newInstructionOutputs(instructions)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), out, flags.outputFormat)
			}

			sig, err := a.service.Buy(cmd.Context(), buyer, mint, paymentWallet, itemWallet)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), TransactionOutput{Kind: "buy", Mint: mint.String(), Signature: sig.String()}, flags.outputFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&mintArg, "mint", "", "Mint of the listed item")
	cmd.Flags().StringVar(&paymentWalletArg, "payment-wallet", "", "Buyer token account the price is paid from")
	cmd.Flags().StringVar(&itemWalletArg, "item-wallet", "", "Buyer token account that receives the item")
	cmd.MarkFlagRequired("mint")
	cmd.MarkFlagRequired("payment-wallet")
	cmd.MarkFlagRequired("item-wallet")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var journal api.OperationLister
			if a.journal != nil {
				journal = a.journal
				cleaner := db.NewJournalCleaner(a.journal, a.cfg.JournalCleanupInterval(), a.cfg.JournalRetention(), a.log)
				cleaner.Start(ctx)
			}

			server := api.NewServer(a.service, journal, a.registry, a.log, a.cfg.QueryServerPort)
			if err := server.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			a.log.Info().Msg("shutting down")
			return server.Stop()
		},
	}
}
