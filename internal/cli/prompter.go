package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/InyerM/spends-assistant-web-sub000/internal/ingest"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// ErrInputTerminated is returned when input ends before a valid choice.
var ErrInputTerminated = errors.New("input terminated")

// Prompter asks the operator how to settle duplicate conflicts.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
	names  Names
}

// NewPrompter creates a prompter reading from reader and writing to writer.
func NewPrompter(reader io.Reader, writer io.Writer, names Names) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
		names:  names,
	}
}

// ConfirmDuplicate shows the conflict and asks whether to keep both, replace
// the existing transaction, or skip the candidate. skip is true when the
// candidate should be dropped.
func (p *Prompter) ConfirmDuplicate(ctx context.Context, conflict model.DuplicateConflict, res model.Resolved) (decision ingest.Decision, skip bool, err error) {
	existing := conflict.Existing
	content := fmt.Sprintf("%s %s  %s  %s\n%s %s",
		BoldStyle.Render("Existing:"),
		existing.Date.Format("2006-01-02"),
		existing.Amount.StringFixed(2),
		existing.Description,
		BoldStyle.Render("Incoming:"),
		res.Description,
	)
	if _, err := fmt.Fprintln(p.writer, RenderBox("Possible duplicate in "+p.names.Account(existing.AccountID), content)); err != nil {
		return "", false, fmt.Errorf("failed to write duplicate box: %w", err)
	}

	for _, option := range []string{"  [K] Keep both", "  [R] Replace existing", "  [S] Skip this transaction", ""} {
		if _, err := fmt.Fprintln(p.writer, option); err != nil {
			return "", false, fmt.Errorf("failed to write options: %w", err)
		}
	}

	choice, err := p.promptChoice(ctx, "Choice", []string{"k", "r", "s"})
	if err != nil {
		return "", false, err
	}

	switch choice {
	case "k":
		return ingest.DecisionKeepBoth, false, nil
	case "r":
		return ingest.DecisionReplace, false, nil
	default:
		return ingest.DecisionAsk, true, nil
	}
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrInputTerminated
			}
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
