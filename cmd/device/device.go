package device

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kashguard/go-eos-signer/internal/api"
	"github.com/kashguard/go-eos-signer/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("device", "Device lifecycle management",
		newInitCmd(),
		newWipeCmd(),
		newLockCmd(),
		newStatusCmd(),
	)
}

func newInitCmd() *cobra.Command {
	var label string
	var passphraseProtection bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the device with a BIP-39 mnemonic read from stdin",
		Run: func(cmd *cobra.Command, _ []string) {
			err := command.WithServer(cmd, nil, func(ctx context.Context, s *api.Server) error {
				mnemonic, err := readMnemonic()
				if err != nil {
					return err
				}
				return s.InitDevice(ctx, mnemonic, label, passphraseProtection)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize device")
			}
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Device label")
	cmd.Flags().BoolVar(&passphraseProtection, "passphrase-protection", false, "Require a BIP-39 passphrase when deriving keys")

	return cmd
}

func newWipeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Erase the mnemonic and all cached secrets",
		Run: func(cmd *cobra.Command, _ []string) {
			if !force {
				log.Fatal().Msg("Refusing to wipe device without --force")
			}
			err := command.WithServer(cmd, nil, func(ctx context.Context, s *api.Server) error {
				return s.WipeDevice(ctx)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to wipe device")
			}
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm the wipe")

	return cmd
}

func newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Drop cached passphrase and seed and release the session lock",
		Run: func(cmd *cobra.Command, _ []string) {
			err := command.WithServer(cmd, nil, func(ctx context.Context, s *api.Server) error {
				return s.LockDevice(ctx)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to lock device")
			}
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the device state",
		Run: func(cmd *cobra.Command, _ []string) {
			err := command.WithServer(cmd, nil, func(ctx context.Context, s *api.Server) error {
				state, err := s.Store.LoadDevice(ctx, s.Config.Device.ID)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.SetTitle("Device " + s.Config.Device.ID)
				t.AppendRows([]table.Row{
					{"Backend", s.Config.Storage.Backend},
					{"Initialized", state.Initialized},
					{"Label", state.Label},
					{"Passphrase protection", state.PassphraseProtection},
					{"Updated at", state.UpdatedAt},
				})
				t.Render()
				return nil
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read device status")
			}
		},
	}
}

func readMnemonic() (string, error) {
	fmt.Fprint(os.Stderr, "Mnemonic: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "failed to read mnemonic")
	}
	return strings.TrimSpace(line), nil
}
