package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	httptransport "attestry/internal/transport/http"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [content-address]",
		Short: "Register the token's principal under a manifest address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := api.RegisterIdentity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", rec.Principal)
			printRecord(rec)
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [principal]",
		Short: "Verify a pending registration as the token's principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := api.VerifyIdentity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Verified %s\n", rec.Principal)
			printRecord(rec)
			return nil
		},
	}
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject [principal]",
		Short: "Reject a pending registration as the token's principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := api.RejectIdentity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Rejected %s\n", rec.Principal)
			printRecord(rec)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [principal]",
		Short: "Show the ledger record for a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := api.Identity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecord(rec)
			return nil
		},
	}
}

func printRecord(rec httptransport.IdentityResponse) {
	fmt.Printf("principal:        %s\n", rec.Principal)
	fmt.Printf("status:           %s\n", rec.Status)
	if rec.ContentAddress != "" {
		fmt.Printf("content address:  %s\n", rec.ContentAddress)
	}
	if rec.RegisteredAt != nil {
		fmt.Printf("registered at:    %s\n", rec.RegisteredAt.Format("2006-01-02 15:04:05 MST"))
	}
	if len(rec.ActingVerifiers) > 0 {
		fmt.Printf("acting verifiers: %s\n", strings.Join(rec.ActingVerifiers, ", "))
	}
}
