// Package prompt runs the interactive two-question flow.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openclaw/qrconsent/generate"
	"github.com/openclaw/qrconsent/qr"
)

const (
	plainQuestion   = "Enter text or URL for a plain QR (e.g. https://example.com): "
	consentQuestion = "Enter the target URL for a consent-protected QR (e.g. https://example.com). Leave empty to skip: "
)

// Flows is what the driver needs from a generator.
type Flows interface {
	Plain(ctx context.Context, text string) (*generate.Result, error)
	Consent(ctx context.Context, targetURL, siteName string) (*generate.Result, error)
}

// Driver asks for a plain payload and a consent target and generates the
// corresponding images.
type Driver struct {
	Flows     Flows
	In        io.Reader
	Out       io.Writer
	OutputDir string
	SiteName  string

	// EnsureDir creates OutputDir before anything is written.
	EnsureDir func() error

	// Terminal, when set, also prints each generated symbol to Out.
	Terminal bool
}

// Run executes both prompts. Empty answers (or EOF) skip the corresponding
// image with a notice. Encoding and file-system errors abort the run.
func (d *Driver) Run(ctx context.Context) error {
	if d.EnsureDir != nil {
		if err := d.EnsureDir(); err != nil {
			return err
		}
	}

	in := bufio.NewReader(d.In)

	plain, err := d.ask(in, plainQuestion)
	if err != nil {
		return err
	}
	if plain != "" {
		res, err := d.Flows.Plain(ctx, plain)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "[+] Plain QR saved to %s\n", res.Path)
		d.preview(res)
	} else {
		fmt.Fprintln(d.Out, "[-] Skipped plain QR (no text entered).")
	}

	target, err := d.ask(in, consentQuestion)
	if err != nil {
		return err
	}
	if target != "" {
		res, err := d.Flows.Consent(ctx, target, d.SiteName)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "[+] Consent-protected QR saved to %s\n", res.Path)
		fmt.Fprintln(d.Out, "    When scanned, it shows a warning page and requires the user to click 'Proceed' to visit the target URL.")
		d.preview(res)
	} else {
		fmt.Fprintln(d.Out, "[-] Skipped consent QR (no target entered).")
	}

	fmt.Fprintf(d.Out, "\nFiles saved in %s. Scan them with a phone QR reader to see the behavior (use your own device).\n", d.OutputDir)
	return nil
}

// ask prints question and returns the trimmed answer line. EOF counts as an
// empty answer.
func (d *Driver) ask(in *bufio.Reader, question string) (string, error) {
	fmt.Fprint(d.Out, question)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if err == io.EOF && line == "" {
		fmt.Fprintln(d.Out)
	}
	return strings.TrimSpace(line), nil
}

func (d *Driver) preview(res *generate.Result) {
	if d.Terminal {
		qr.WriteTerminal(d.Out, res.Payload, res.Level)
	}
}
