package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dingstream-io/dingstream/pkg/dingstream"
	"github.com/dingstream-io/dingstream/pkg/dingstream/config"
)

var (
	sendConversation string
	sendUser         string
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send a one-shot text message to a group or user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendConversation == "" && sendUser == "" {
			return fmt.Errorf("either --conversation or --user is required")
		}

		cfg, err := config.Load(cfgFile, env)
		if err != nil {
			return err
		}

		logger, sync := newLogger(cfg.Log.Level, cfg.Log.File)
		defer sync()

		client, err := dingstream.NewClient().
			WithCredentials(cfg.App.ClientID, cfg.App.ClientSecret).
			WithLogger(logger).
			Build()
		if err != nil {
			return err
		}

		message := dingstream.SampleText{Content: args[0]}
		if sendConversation != "" {
			return client.SendGroupMessage(cmd.Context(), sendConversation, message)
		}
		return client.SendSingleMessage(cmd.Context(), sendUser, message)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendConversation, "conversation", "", "open conversation id of the target group")
	sendCmd.Flags().StringVar(&sendUser, "user", "", "user id of the target single chat")
	rootCmd.AddCommand(sendCmd)
}
