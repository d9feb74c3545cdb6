package cmd

import (
	"github.com/kashguard/go-eos-signer/cmd/device"
	"github.com/kashguard/go-eos-signer/cmd/pubkey"
	"github.com/kashguard/go-eos-signer/cmd/sign"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// New 根命令
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eos-signer",
		Short: "EOS transaction signer",
		Long: `Signs EOS transactions with keys derived from a BIP-39 mnemonic.
Configuration is read from EOS_SIGNER_* environment variables and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		sign.New(),
		pubkey.New(),
		device.New(),
	)
	return cmd
}

// Execute 运行根命令
func Execute() {
	if err := New().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
