package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stockchat/stockchat/internal/agent"
	"github.com/stockchat/stockchat/internal/config"
)

var (
	answerStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(lipgloss.AdaptiveColor{Light: "236", Dark: "252"})

	faultStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(lipgloss.Color("203"))

	actionStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Faint(true)
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a one-shot question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)
	a, _ := buildAgent(cfg, logger)

	question := strings.Join(args, " ")
	reply := a.Process(context.Background(), question)

	style := answerStyle
	if reply.Action == agent.ActionError {
		style = faultStyle
	}
	cmd.Println(style.Render(reply.Response))
	cmd.Println(actionStyle.Render("action: " + reply.Action))

	return nil
}
