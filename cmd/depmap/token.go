package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"depmap/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API bearer token",
}

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API token and its hash",
	Long: `Generate a bearer token for the HTTP API. The raw token is printed once;
store the hash in .depmap/config.json under server.tokenHash (or the
DEPMAP_SERVER_TOKENHASH environment variable) to require it on every
request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.GenerateToken()
		if err != nil {
			return err
		}
		hash, err := auth.HashToken(token)
		if err != nil {
			return err
		}

		fmt.Println("Token (save it now, it is not stored):")
		fmt.Printf("  %s\n\n", token)
		fmt.Println("Hash for server.tokenHash:")
		fmt.Printf("  %s\n", hash)
		return nil
	},
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token> <hash>",
	Short: "Check a token against a stored hash",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !auth.IsValidTokenFormat(args[0]) {
			return fmt.Errorf("%s is not a valid token", auth.MaskToken(args[0]))
		}
		if !auth.VerifyToken(args[0], args[1]) {
			return fmt.Errorf("token %s does not match the hash", auth.MaskToken(args[0]))
		}
		fmt.Println("Token matches")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenGenerateCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)
}
