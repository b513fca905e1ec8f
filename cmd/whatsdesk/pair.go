package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"github.com/ebdaasoft/whatsdesk/internal/orchestrator"
)

// newPairCmd pairs an identity from the terminal, rendering QR payloads
// inline instead of requiring the admin API.
func newPairCmd() *cobra.Command {
	var owner string
	var name string
	var sessionID string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Provision and pair a messaging identity interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provideConfig()
			if err != nil {
				return err
			}
			log := provideLogger(cfg)
			repliesService, err := provideRepliesService(log, cfg)
			if err != nil {
				return err
			}
			orch, err := orchestrator.New(log, cfg, provideDialer(log), repliesService)
			if err != nil {
				return err
			}

			if sessionID == "" {
				identity, err := orch.Provision(owner, name)
				if err != nil {
					return err
				}
				sessionID = identity.SessionID
				fmt.Fprintln(os.Stdout, "provisioned identity", sessionID)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := orch.Pair(ctx, sessionID); err != nil {
				return err
			}

			lastQR := ""
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return fmt.Errorf("pairing timed out after %s", timeout)
				case <-ticker.C:
				}
				identity, err := orch.Get(sessionID)
				if err != nil {
					return err
				}
				if identity.PairingState == orchestrator.PairingConnected {
					fmt.Fprintln(os.Stdout, "paired and connected")
					return nil
				}
				code, err := orch.QR(sessionID)
				if err != nil {
					if errors.Is(err, orchestrator.ErrQRUnavailable) {
						continue
					}
					return err
				}
				if code == lastQR {
					continue
				}
				lastQR = code
				fmt.Fprintln(os.Stdout, "scan this code from the phone's linked devices screen:")
				qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
			}
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "admin", "owner user id recorded on the identity")
	cmd.Flags().StringVar(&name, "name", "", "display name advertised during pairing")
	cmd.Flags().StringVar(&sessionID, "session", "", "pair an existing identity instead of provisioning")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the scan")
	return cmd
}
