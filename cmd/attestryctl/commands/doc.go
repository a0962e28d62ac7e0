// Package commands defines the attestryctl CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - register   Register the token's principal under a manifest address
//   - verify     Verify a pending registration
//   - reject     Reject a pending registration
//   - status     Show a principal's ledger record
//   - verifier   Manage the trusted verifier set (add, remove, list)
//   - upload     Store files as one encrypted bundle
//   - validate   Check a file against a stored bundle
//   - token      Mint a bearer token with the shared signing key
//   - keygen     Generate a recipient key pair and principal address
//
// # Implementation
//
// The root command constructs the API client before any subcommand runs, so
// handlers share one base URL, bearer token, and request timeout. token and
// keygen are local operations and never touch the server.
package commands
