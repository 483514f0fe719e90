package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
	"github.com/iLeonidze/OXPAHA28-bot/pkg/incidentbot"
)

func newAnnounceCmd() *cobra.Command {
	var pin bool

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Post the rules message with a link to the bot to the moderation channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := identify(ctx, client, cfg, logger); err != nil {
				return err
			}

			id, err := incidentbot.Announce(ctx, client, cfg)
			if err != nil {
				return fmt.Errorf("post announcement: %w", err)
			}
			logger.Info("announcement posted", slog.Int64("message_id", id))

			if pin {
				err := client.PinChatMessage(ctx, &telegram.PinChatMessageRequest{
					ChatID:              cfg.Groups.Main.ID,
					MessageID:           id,
					DisableNotification: true,
				})
				if err != nil {
					return fmt.Errorf("pin announcement: %w", err)
				}
				logger.Info("announcement pinned", slog.Int64("message_id", id))
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pin, "pin", false, "Pin the posted message")
	return cmd
}
