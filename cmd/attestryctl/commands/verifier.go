package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func verifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verifier",
		Short: "Manage the trusted verifier set (owner only)",
	}
	cmd.AddCommand(verifierAddCmd(), verifierRemoveCmd(), verifierListCmd())
	return cmd
}

func verifierAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [principal]",
		Short: "Grant verifier authority to a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.AddVerifier(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Added verifier %s\n", args[0])
			return nil
		},
	}
}

func verifierRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [principal]",
		Short: "Revoke a principal's verifier authority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.RemoveVerifier(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed verifier %s\n", args[0])
			return nil
		},
	}
}

func verifierListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the trusted verifier set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := api.Verifiers(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range resp.Verifiers {
				fmt.Println(v)
			}
			return nil
		},
	}
}
