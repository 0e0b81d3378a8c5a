package approval

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/glamour"
)

const confirmMessage = "Approve this post?"

// ConfirmFunc asks a yes/no question.
type ConfirmFunc func(message string) (bool, error)

// Console renders the post in the terminal and asks for confirmation.
type Console struct {
	Out     io.Writer
	Style   string
	Confirm ConfirmFunc
}

func NewConsole(out io.Writer, style string) *Console {
	return &Console{Out: out, Style: style, Confirm: surveyConfirm}
}

func (c *Console) Await(ctx context.Context, req Request) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rendered, err := c.render(req)
	if err != nil {
		return false, err
	}
	if _, err := io.WriteString(c.Out, rendered); err != nil {
		return false, fmt.Errorf("approval: write preview: %w", err)
	}

	confirm := c.Confirm
	if confirm == nil {
		confirm = surveyConfirm
	}
	ok, err := confirm(confirmMessage)
	if errors.Is(err, terminal.InterruptErr) {
		return false, fmt.Errorf("%w: interrupted", ErrAborted)
	}
	if err != nil {
		return false, fmt.Errorf("approval: confirm: %w", err)
	}
	return ok, nil
}

func (c *Console) render(req Request) (string, error) {
	opt := glamour.WithStandardStyle(c.Style)
	if c.Style == "" || c.Style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(80))
	if err != nil {
		return "", fmt.Errorf("approval: renderer: %w", err)
	}
	out, err := r.Render(previewMarkdown(req))
	if err != nil {
		return "", fmt.Errorf("approval: render preview: %w", err)
	}
	return out, nil
}

func previewMarkdown(req Request) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", req.Title)
	}
	b.WriteString(req.Caption)
	b.WriteString("\n")
	if req.ImageURL != "" {
		fmt.Fprintf(&b, "\n![image](%s)\n", req.ImageURL)
	}
	return b.String()
}

func surveyConfirm(message string) (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, err
}

// Line reads a single answer line. Only "y" and "yes" approve, case-insensitively;
// "yes" and upper case are accepted on purpose, on top of the plain "y".
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

func (l *Line) Await(ctx context.Context, _ Request) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprint(l.out, "Approve? (y/n): ")
	answer, err := l.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("approval: read answer: %w", err)
		}
		if answer == "" {
			return false, fmt.Errorf("%w: input closed", ErrAborted)
		}
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
