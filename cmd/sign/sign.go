package sign

import (
	"context"
	"encoding/json"
	"os"

	"github.com/kashguard/go-eos-signer/internal/api"
	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/kashguard/go-eos-signer/internal/host"
	"github.com/kashguard/go-eos-signer/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	var path string
	var chunkSize int
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "sign <transaction.json>",
		Short: "Sign an EOS transaction described by a JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mutate := func(cfg *config.Signer) {
				if path != "" {
					cfg.Signing.DefaultPath = path
				}
				if chunkSize > 0 {
					cfg.Signing.ChunkSize = chunkSize
				}
				if autoApprove {
					cfg.Signing.AutoApprove = true
				}
			}

			err := command.WithServer(cmd, mutate, func(ctx context.Context, s *api.Server) error {
				return signFile(ctx, s, args[0])
			})
			if err != nil {
				log.Fatal().Err(err).Str("file", args[0]).Msg("Failed to sign transaction")
			}
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "BIP-32 derivation path (defaults to EOS_SIGNER_DEFAULT_PATH)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum bytes per unknown action chunk")
	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Approve every confirmation without prompting")

	return cmd
}

func signFile(ctx context.Context, s *api.Server, file string) error {
	addressN, err := s.Derivation.ParseDerivationPath(s.Config.Signing.DefaultPath)
	if err != nil {
		return err
	}

	tx, err := host.LoadTransaction(file, addressN)
	if err != nil {
		return err
	}

	scripted := host.NewScriptedHost(tx.Actions, s.Config.Signing.ChunkSize)
	confirmer := host.NewTerminalConfirmer(os.Stdin, os.Stderr, s.Config.Signing.AutoApprove)

	sig, err := s.Signing.SignTx(ctx, tx.Request, scripted, confirmer)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(host.FormatSignature(sig))
}
