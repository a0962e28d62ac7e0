package commands

import (
	"time"

	"github.com/spf13/cobra"

	"attestry/internal/apiclient"
)

var (
	serverURL string
	token     string
	timeout   time.Duration

	api *apiclient.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:           "attestryctl",
		Short:         "Operator CLI for the attestry ledger and document store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			api = apiclient.New(serverURL, token, timeout)
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "attestry server base URL")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token asserting the acting principal")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		registerCmd(), verifyCmd(), rejectCmd(), statusCmd(),
		verifierCmd(),
		uploadCmd(), validateCmd(),
		tokenCmd(), keygenCmd(),
	)
	return root.Execute()
}
