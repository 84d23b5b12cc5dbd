package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"bondbook/internal/platform/logger"
	platformredis "bondbook/internal/platform/redis"
	"bondbook/internal/revocation"
)

var (
	revokeJTI string
	revokeTTL time.Duration
)

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Add an access token id to the shared revocation list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if revokeJTI == "" {
			return errors.New("--jti is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if client == nil {
			return errors.New("redis.url is required to revoke tokens")
		}
		defer client.Close()

		if err := revocation.NewRedisTRL(client.Client).RevokeToken(ctx, revokeJTI, revokeTTL); err != nil {
			return err
		}
		logger.New(cfg.LogLevel).InfoContext(ctx, "token revoked",
			"jti", revokeJTI,
			"ttl", revokeTTL.String(),
		)
		return nil
	},
}

func init() {
	revokeCmd.Flags().StringVar(&revokeJTI, "jti", "", "token id (jti claim) to revoke")
	revokeCmd.Flags().DurationVar(&revokeTTL, "ttl", time.Hour, "how long to keep the entry; use the token's remaining lifetime")
}
