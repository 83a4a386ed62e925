package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wildanadt/RTA-WRT/internal/notifier"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// Notify command flags
var (
	notifyChatID   string
	notifyTopicID  int
	notifyFiles    string
	notifyMaxFiles int
	notifyDryRun   bool
)

func createNotifyCommand() *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify MESSAGE",
		Short: "Send a release announcement to Telegram",
		Long: `Notify sends an HTML-formatted message to a chat, optionally
attaching files matched by a glob pattern in groups of at most
--max-files. The bot token is read from TELEGRAM_BOT_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: executeNotify,
	}

	notifyCmd.Flags().StringVar(&notifyChatID, "chat-id", "",
		"Chat ID to send to")
	notifyCmd.Flags().IntVar(&notifyTopicID, "topic-id", 0,
		"Forum topic ID (0 = none)")
	notifyCmd.Flags().StringVar(&notifyFiles, "files", "",
		"Glob pattern of files to attach")
	notifyCmd.Flags().IntVar(&notifyMaxFiles, "max-files", 10,
		"Maximum files per message group")
	notifyCmd.Flags().BoolVar(&notifyDryRun, "dry-run", false,
		"Log what would be sent without sending it")
	notifyCmd.MarkFlagRequired("chat-id")
	return notifyCmd
}

func executeNotify(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" && !notifyDryRun {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	bot := notifier.New(notifier.Config{
		Token:            token,
		ChatID:           notifyChatID,
		TopicID:          notifyTopicID,
		MaxFilesPerGroup: notifyMaxFiles,
		DryRun:           notifyDryRun,
	})

	message := args[0]
	if notifyFiles != "" {
		paths, err := filepath.Glob(notifyFiles)
		if err != nil {
			return fmt.Errorf("bad file pattern %q: %w", notifyFiles, err)
		}
		if len(paths) > 0 {
			return bot.SendFiles(cmd.Context(), paths, message)
		}
		log.Warnf("No files match %q, sending message only", notifyFiles)
	}
	return bot.SendMessage(cmd.Context(), message, nil)
}
