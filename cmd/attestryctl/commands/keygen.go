package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"attestry/internal/envelope"
	"attestry/pkg/domain"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an X25519 recipient key pair and its principal address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, pub, err := envelope.GenerateKeyPair()
			if err != nil {
				return err
			}
			principal, err := domain.PrincipalFromPublicKey(pub.Slice())
			if err != nil {
				return err
			}
			fmt.Printf("private key: %s\n", hex.EncodeToString(priv.Slice()))
			fmt.Printf("public key:  %s\n", hex.EncodeToString(pub.Slice()))
			fmt.Printf("principal:   %s\n", principal)
			return nil
		},
	}
}
