package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/odiadev/ruthie-core/config"
	dialogue "github.com/odiadev/ruthie-core/core"
	"github.com/odiadev/ruthie-core/core/events"
	"github.com/odiadev/ruthie-core/core/sanitize"
)

var consoleCaller string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Simulate a call from the terminal",
	Long: `Runs one dialogue session with typed input standing in for speech.
Everything downstream of recognition is the real pipeline: intent gating,
slot collection, sanitization, confirmation and dispatch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runConsole(cmd.Context(), cfg)
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleCaller, "caller", "+2348128772405", "caller identity for the simulated call")
	rootCmd.AddCommand(consoleCmd)
}

// consoleVoice routes the session's outbound side into the TUI.
type consoleVoice struct {
	lines chan consoleLine
}

type consoleLine struct {
	kind consoleLineKind
	text string
}

type consoleLineKind int

const (
	lineAgent consoleLineKind = iota + 1
	lineControl
	lineHangup
)

func (v *consoleVoice) Speak(_ context.Context, text string) error {
	v.lines <- consoleLine{kind: lineAgent, text: text}
	return nil
}

func (v *consoleVoice) ClearSpeech(context.Context) error {
	v.lines <- consoleLine{kind: lineControl, text: "(speech interrupted)"}
	return nil
}

func (v *consoleVoice) Transfer(context.Context) error {
	v.lines <- consoleLine{kind: lineControl, text: "(call transferred to a human)"}
	return nil
}

func (v *consoleVoice) End(context.Context) error {
	v.lines <- consoleLine{kind: lineHangup, text: "(call ended)"}
	return nil
}

func runConsole(ctx context.Context, cfg config.Config) error {
	sanitizer, err := sanitize.New(cfg.SanitizePolicy())
	if err != nil {
		return err
	}

	voice := &consoleVoice{lines: make(chan consoleLine, 16)}
	sessionOpts := []dialogue.SessionOption{
		dialogue.WithSanitizer(sanitizer),
		dialogue.WithSchemas(cfg.SchemaMap()),
		dialogue.WithSilenceThresholds(cfg.SilenceThresholds()),
	}
	if cfg.Greeting != "" {
		sessionOpts = append(sessionOpts, dialogue.WithPhrases(defaultOverride(cfg.Greeting)))
	}

	session, err := dialogue.NewSession(ctx, consoleCaller, voice, sessionOpts...)
	if err != nil {
		return err
	}
	defer func() {
		session.Close("console quit")
		<-session.Done()
	}()
	session.Push(events.NewSessionStarted(consoleCaller))

	program := tea.NewProgram(newConsoleModel(session, voice), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
