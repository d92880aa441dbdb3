package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/echiveai-alt/funnytime2-sub001/internal/config"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long:  `Sign a bearer token with JWT_SECRET for local testing of the REST API.`,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User ID (UUID) to issue the token for")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(tokenUserID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	if userID == uuid.Nil {
		return fmt.Errorf("invalid --user: nil UUID")
	}

	jwtConfig, err := config.NewJWTConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(userID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
