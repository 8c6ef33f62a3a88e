package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/service/orchestrator"
	"github.com/veldt-labs/caresage/pkg/log"
)

const (
	defaultUserID = "cli-local"
	docCommand    = "/doc"
)

type ReadLine struct {
	cfg  *config.AppConfig
	orch *orchestrator.Orchestrator
	rl   *readline.Instance

	conversationID string
}

func NewReadLine(orch *orchestrator.Orchestrator, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:            cfg,
		orch:           orch,
		rl:             rl,
		conversationID: uuid.NewString(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("conversation_id", r.conversationID).
		Msg("CLI chat started. Type 'exit' to quit, '/doc <id> <question>' to ask about an uploaded document.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		text, documentID := parseDocCommand(line)

		reply, err := r.orch.HandleTurn(ctx, defaultUserID, r.conversationID, text, documentID)
		if err != nil {
			logger.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		r.render(reply)
	}
}

func (r *ReadLine) render(reply core.FinalReply) {
	out := r.rl.Stdout()

	for _, flag := range reply.SafetyFlags {
		if flag.Kind == core.FlagEmergency {
			fmt.Fprintf(out, "\033[31m[URGENT]\033[0m %s\n", flag.Detail)
		}
	}

	fmt.Fprintf(out, "%s\n", reply.Text)

	if reply.Degraded {
		fmt.Fprintln(out, "\033[38;5;240m(partial answer, some services were unavailable)\033[0m")
	}
}

// parseDocCommand splits "/doc <id> <question>" into its parts. Any
// other line is a plain message.
func parseDocCommand(line string) (text, documentID string) {
	if !strings.HasPrefix(line, docCommand+" ") {
		return line, ""
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, docCommand))
	parts := strings.SplitN(rest, " ", 2)
	documentID = parts[0]
	if len(parts) == 2 {
		text = strings.TrimSpace(parts[1])
	}
	if text == "" {
		text = "What does this document say?"
	}
	return text, documentID
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
