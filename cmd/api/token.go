package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/infrastructure/jwtauth"
	"taskmeet/pkg/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development JWT signed with JWT_SECRET",
	Long: `Prints an HS256 token accepted by the server when AUTH_PROVIDER=jwt.
Pass it as "Authorization: Bearer <token>" or as /ws?token=<token>.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("uid", "", "user id (token subject)")
	tokenCmd.Flags().String("name", "", "display name claim")
	tokenCmd.Flags().String("avatar", "", "avatar URL claim")
	tokenCmd.Flags().String("role", entity.RoleUser, "role claim (user or admin)")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime, defaults to JWT_EXPIRY")
	_ = tokenCmd.MarkFlagRequired("uid")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	uid, _ := flags.GetString("uid")
	name, _ := flags.GetString("name")
	avatar, _ := flags.GetString("avatar")
	role, _ := flags.GetString("role")
	ttl, _ := flags.GetDuration("ttl")

	if role != entity.RoleUser && role != entity.RoleAdmin {
		return fmt.Errorf("role must be %q or %q", entity.RoleUser, entity.RoleAdmin)
	}
	if ttl <= 0 {
		ttl = time.Duration(cfg.JWTExpiry) * time.Second
	}

	token, err := jwtauth.NewAuthenticator(cfg.JWTSecret, ttl).IssueToken(entity.Identity{
		UserID:    uid,
		Name:      name,
		AvatarURL: avatar,
		Role:      role,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
