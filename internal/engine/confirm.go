package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"lecca.io/olas-staker/internal/logger"
)

// StdinConfirmer asks the operator on the terminal and blocks until an
// answer is typed. "yes" and "y" (any case) count as consent.
type StdinConfirmer struct {
	r *bufio.Reader
}

func NewStdinConfirmer(r io.Reader) *StdinConfirmer {
	return &StdinConfirmer{r: bufio.NewReader(r)}
}

func (c *StdinConfirmer) Confirm(prompt string) (bool, error) {
	logger.Promptf("%s\n", prompt)
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y", nil
}

func (c *StdinConfirmer) Acknowledge(prompt string) error {
	logger.Promptf("%s", prompt)
	if _, err := c.r.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read acknowledgement: %w", err)
	}
	logger.Promptf("\n")
	return nil
}

// AutoConfirmer answers yes to everything; used with --yes for
// non-interactive runs.
type AutoConfirmer struct{}

func (AutoConfirmer) Confirm(prompt string) (bool, error) {
	logger.Promptf("%s\n", prompt)
	logger.Info("ENGINE", "Auto-confirming (--yes)")
	return true, nil
}

func (AutoConfirmer) Acknowledge(prompt string) error {
	logger.Promptf("%s\n", prompt)
	return nil
}
