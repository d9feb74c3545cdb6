package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// TerminalConfirmer 在终端渲染确认页并读取 y/N
type TerminalConfirmer struct {
	in          *bufio.Reader
	out         io.Writer
	autoApprove bool
}

// NewTerminalConfirmer autoApprove 为 true 时只渲染不询问
func NewTerminalConfirmer(in io.Reader, out io.Writer, autoApprove bool) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewReader(in), out: out, autoApprove: autoApprove}
}

// Confirm 实现 signing.Confirmer
func (c *TerminalConfirmer) Confirm(ctx context.Context, review actions.Review) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	RenderReview(c.out, review)
	if c.autoApprove {
		fmt.Fprintln(c.out, "Approved automatically")
		return true, nil
	}

	fmt.Fprint(c.out, "Confirm? [y/N]: ")
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false, errors.Wrap(err, "failed to read confirmation")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// RenderReview 以表格输出确认页
// 标题单独成行，避免表格按列宽折行
func RenderReview(out io.Writer, review actions.Review) {
	fmt.Fprintln(out, review.Title)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range review.Fields {
		t.AppendRow(table.Row{strings.TrimSpace(f.Label), f.Value})
	}
	t.Render()
}

// TerminalPrompt 从终端读取口令，非 tty 时读取一行
type TerminalPrompt struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompt 创建口令输入
func NewTerminalPrompt(in *os.File, out io.Writer) *TerminalPrompt {
	return &TerminalPrompt{in: in, out: out}
}

// Passphrase 实现 key.PassphrasePrompt
func (p *TerminalPrompt) Passphrase(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(p.out, "Passphrase: ")
	defer fmt.Fprintln(p.out)

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", errors.Wrap(err, "failed to read passphrase")
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "failed to read passphrase")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// StaticPassphrase 固定口令，来自配置
type StaticPassphrase string

func (p StaticPassphrase) Passphrase(context.Context) (string, error) {
	return string(p), nil
}
