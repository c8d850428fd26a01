package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/qrconsent/api"
	"github.com/openclaw/qrconsent/datauri"
	"github.com/openclaw/qrconsent/generate"
	"github.com/openclaw/qrconsent/page"
	"github.com/openclaw/qrconsent/prompt"
	"github.com/openclaw/qrconsent/qr"
	"github.com/openclaw/qrconsent/store"
)

var version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	outDir     string
	verbose    bool
	terminal   bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "qrconsent",
		Short: "Generate plain and consent-protected QR codes",
		Long: `qrconsent generates QR-code PNG images.

Run without arguments to be prompted for a plain text/URL and a consent
target. The consent QR encodes a data: URI holding a small warning page,
so whoever scans it must click through before reaching the target.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(&flags, func(a *app) error {
				d := &prompt.Driver{
					Flows:     a.gen,
					In:        cmd.InOrStdin(),
					Out:       cmd.OutOrStdout(),
					OutputDir: a.cfg.OutputDir,
					SiteName:  a.cfg.SiteName,
					EnsureDir: a.cfg.EnsureOutputDir,
					Terminal:  flags.terminal,
				}
				return d.Run(cmd.Context())
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "qrconsent.yaml", "Path to config file")
	pf.StringVarP(&flags.outDir, "out", "o", "", "Output directory (overrides config)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&flags.terminal, "terminal", "t", false, "Also print generated QR codes to the terminal")

	root.AddCommand(
		newPlainCmd(&flags),
		newConsentCmd(&flags),
		newGoodboyCmd(&flags),
		newScanCmd(),
		newServeCmd(&flags),
		newHistoryCmd(&flags),
		newVersionCmd(),
	)
	return root
}

// --- plain command ------------------------------------------------------------

func newPlainCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plain [text]",
		Short: "Encode text or a URL verbatim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				if err := a.cfg.EnsureOutputDir(); err != nil {
					return err
				}
				res, err := a.gen.Plain(cmd.Context(), args[0])
				if errors.Is(err, generate.ErrEmptyPayload) {
					fmt.Fprintln(cmd.OutOrStdout(), "[-] Skipped plain QR (no text entered).")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[+] Plain QR saved to %s\n", res.Path)
				preview(cmd, flags, res)
				return nil
			})
		},
	}
}

// --- consent command ----------------------------------------------------------

func newConsentCmd(flags *globalFlags) *cobra.Command {
	var site string
	cmd := &cobra.Command{
		Use:   "consent [url]",
		Short: "Encode a warning page that links to the target URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				if err := a.cfg.EnsureOutputDir(); err != nil {
					return err
				}
				res, err := a.gen.Consent(cmd.Context(), args[0], site)
				if errors.Is(err, generate.ErrEmptyPayload) {
					fmt.Fprintln(cmd.OutOrStdout(), "[-] Skipped consent QR (no target entered).")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[+] Consent-protected QR saved to %s\n", res.Path)
				fmt.Fprintln(cmd.OutOrStdout(), "    When scanned, it shows a warning page and requires the user to click 'Proceed' to visit the target URL.")
				preview(cmd, flags, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "Display name shown on the warning page (default from config)")
	return cmd
}

// --- goodboy command ----------------------------------------------------------

func newGoodboyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "goodboy",
		Short: "Encode the animated goodboy page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				if err := a.cfg.EnsureOutputDir(); err != nil {
					return err
				}
				res, err := a.gen.Goodboy(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[+] Goodboy QR saved to %s\n", res.Path)
				preview(cmd, flags, res)
				return nil
			})
		},
	}
}

// --- scan command -------------------------------------------------------------

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [image]",
		Short: "Decode a QR image and show what it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := qr.ScanFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			u, err := datauri.Parse(text)
			if err != nil || !u.IsHTML() {
				fmt.Fprintln(out, text)
				return nil
			}

			s, err := page.Inspect(u.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "data URI: %s, %d bytes of HTML\n", u.MediaType, len(u.Data))
			fmt.Fprintf(out, "title: %s\n", s.Title)
			for _, link := range s.Links {
				fmt.Fprintf(out, "link: %s\n", link)
			}
			return nil
		},
	}
}

// --- serve command ------------------------------------------------------------

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve QR images over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				if port == 0 {
					port = a.cfg.Port
				}
				return runServe(a, port)
			})
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config)")
	return cmd
}

// runServe starts the HTTP server and blocks until SIGINT or SIGTERM.
func runServe(a *app, port int) error {
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", port),
		Handler: api.NewRouter(&api.Server{
			Generator: a.gen,
			History:   a.history,
			SiteName:  a.cfg.SiteName,
			Log:       a.log,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", "error", err)
	}

	a.log.Info("goodbye")
	return nil
}

// --- history command ----------------------------------------------------------

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		kind   string
		search string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated QR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app) error {
				if a.history == nil {
					return errors.New("history is disabled or its store could not be opened")
				}
				var (
					recs []store.Record
					err  error
				)
				if search != "" {
					recs, err = a.history.Search(search, limit)
				} else {
					recs, err = a.history.Recent(kind, limit)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range recs {
					path := r.Path
					if path == "" {
						path = "(http)"
					}
					created := time.Unix(r.CreatedAt, 0).Format(time.RFC3339)
					fmt.Fprintf(out, "%s  %-8s %s  %5d bytes  %s\n", created, r.Kind, r.Level, r.PayloadBytes, path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only show plain, consent or goodboy records")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Full-text search over payloads")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records")
	return cmd
}

// --- version command ----------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrconsent %s\n", version)
		},
	}
}

func preview(cmd *cobra.Command, flags *globalFlags, res *generate.Result) {
	if flags.terminal {
		qr.WriteTerminal(cmd.OutOrStdout(), res.Payload, res.Level)
	}
}
