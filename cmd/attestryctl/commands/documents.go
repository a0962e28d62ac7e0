package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"attestry/internal/apiclient"
)

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload [file]...",
		Short: "Store files as one encrypted bundle and print its manifest address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]apiclient.Document, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				docs = append(docs, apiclient.Document{Name: filepath.Base(path), Data: data})
			}

			resp, err := api.StoreDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}
			fmt.Printf("Stored %d document(s)\n", resp.DocumentCount)
			fmt.Printf("manifest address: %s\n", resp.ManifestAddress)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest-address] [file]",
		Short: "Check whether a stored bundle contains a document equal to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			reference := apiclient.Document{Name: filepath.Base(args[1]), Data: data}

			resp, err := api.ValidateDocument(cmd.Context(), args[0], reference)
			if err != nil {
				return err
			}
			if !resp.Valid {
				return fmt.Errorf("document does not match the stored bundle")
			}
			fmt.Println("Document matches the stored bundle")
			return nil
		},
	}
}
