package pubkey

import (
	"context"
	"encoding/hex"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kashguard/go-eos-signer/internal/api"
	"github.com/kashguard/go-eos-signer/internal/host"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	var path string
	var account int
	var show bool

	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Derive the EOS public key for a derivation path",
		Run: func(cmd *cobra.Command, _ []string) {
			err := command.WithServer(cmd, nil, func(ctx context.Context, s *api.Server) error {
				var addressN []uint32
				switch {
				case path != "":
					parsed, err := s.Derivation.ParseDerivationPath(path)
					if err != nil {
						return err
					}
					addressN = parsed
				case account >= 0:
					addressN = key.EOSPath(uint32(account))
				default:
					parsed, err := s.Derivation.ParseDerivationPath(s.Config.Signing.DefaultPath)
					if err != nil {
						return err
					}
					addressN = parsed
				}
				return printPublicKey(ctx, s, addressN, show)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to get public key")
			}
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "BIP-32 derivation path")
	cmd.Flags().IntVarP(&account, "account", "a", -1, "Account index for m/44'/194'/<account>'/0/0")
	cmd.Flags().BoolVar(&show, "show", false, "Display the key and ask for confirmation")

	return cmd
}

func printPublicKey(ctx context.Context, s *api.Server, addressN []uint32, show bool) error {
	// 非标准路径总是需要确认
	confirmer := host.NewTerminalConfirmer(os.Stdin, os.Stderr, s.Config.Signing.AutoApprove)

	res, err := s.Signing.GetPublicKey(ctx, addressN, show, confirmer)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Path", res.Path},
		{"Public key", res.PublicKey},
		{"Raw", hex.EncodeToString(res.Raw)},
	})
	t.Render()
	return nil
}
