package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewTokenCmd mints a bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		user  domain.User
		roles []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user.UserID <= 0 {
				return fmt.Errorf("--id must be positive")
			}
			user.RoleSet = domain.ParseRoles(roles)
			if user.RoleSet == 0 {
				return fmt.Errorf("at least one of student, teacher, admin is required in --roles")
			}
			if user.Login == "" {
				user.Login = fmt.Sprintf("user%d", user.UserID)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			auth := transport.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer,
				config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			tok, err := auth.Issue(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&user.UserID, "id", 0, "user id (token subject)")
	cmd.Flags().StringVar(&user.Login, "username", "", "username")
	cmd.Flags().StringVar(&user.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&user.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&user.Mail, "email", "", "email")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"student"}, "roles: student, teacher, admin")
	return cmd
}
