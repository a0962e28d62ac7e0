package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"attestry/internal/jwttoken"
	"attestry/pkg/domain"
)

var (
	tokenSigningKey string
	tokenIssuer     string
	tokenAudience   string
	tokenTTL        time.Duration
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [principal]",
		Short: "Mint a bearer token for a principal with the shared signing key",
		Long: `Mint a bearer token asserting a principal, signed with the key the
server was configured with. This is operator tooling for development and
testing; production deployments hand out tokens through their own issuer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenSigningKey == "" {
				return fmt.Errorf("signing key required (--signing-key)")
			}
			principal, err := domain.ParsePrincipal(args[0])
			if err != nil {
				return err
			}

			svc := jwttoken.NewService(tokenSigningKey, tokenIssuer, tokenAudience)
			signed, err := svc.GenerateAccessToken(principal, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenSigningKey, "signing-key", "", "HS256 signing key shared with the server")
	cmd.Flags().StringVar(&tokenIssuer, "issuer", "attestry", "token issuer claim")
	cmd.Flags().StringVar(&tokenAudience, "audience", "attestry-api", "token audience claim")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	return cmd
}
