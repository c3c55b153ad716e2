package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stewardai/steward/core"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the supervisor a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		sup, err := buildSupervisor(cfg, logger)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		sessionID := core.NewID()
		if _, err := sup.Runner().SessionStore().Create(sessionID); err != nil {
			return err
		}

		userContent := core.Content{
			Role:  "user",
			Parts: []core.Part{core.TextPart{Text: question}},
		}

		_, events, errs, err := sup.Runner().Run(cmd.Context(), sessionID, userContent)
		if err != nil {
			return err
		}

		// The formatter rewrites the final assistant message last, so the
		// answer is whatever assistant text arrived most recently.
		var answer string
		for ev := range events {
			if ev.Content == nil || ev.Content.Role != "assistant" {
				continue
			}
			if ev.Partial != nil && *ev.Partial {
				continue
			}
			var sb strings.Builder
			for _, p := range ev.Content.Parts {
				if tp, ok := p.(core.TextPart); ok {
					sb.WriteString(tp.Text)
				}
			}
			if text := sb.String(); text != "" {
				answer = text
			}
		}
		if err := <-errs; err != nil {
			return err
		}
		if answer == "" {
			return fmt.Errorf("run produced no answer")
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}
