package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/0xcro3dile/kbchat/internal/adapters/knowledge"
	"github.com/0xcro3dile/kbchat/internal/app"
	"github.com/0xcro3dile/kbchat/internal/config"
	httpserver "github.com/0xcro3dile/kbchat/internal/infrastructure/http"
	"github.com/0xcro3dile/kbchat/internal/infrastructure/tui"
	"github.com/0xcro3dile/kbchat/internal/logging"
	"github.com/0xcro3dile/kbchat/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "kbchat",
		Short:         "Chat with a small pre-embedded knowledge base",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path (default ./kbchat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newAskCmd(flags),
		newRetrieveCmd(flags),
		newChatCmd(flags),
		newKBCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "kbchat", version)
			},
		},
	)
	return rootCmd
}

// runtime bundles everything a command needs and tears it down on close.
type runtime struct {
	cfg    *config.Config
	app    *app.App
	tracer *observability.TracerProvider
}

func setup(ctx context.Context, flags *globalFlags, quietLogs bool) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	var logOut io.Writer = os.Stderr
	if quietLogs && !flags.verbose {
		// The TUI owns the terminal.
		logOut = io.Discard
	}
	logger := logging.Setup(logOut, logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: flags.verbose,
	})
	for _, w := range cfg.Validate() {
		logger.Warn("Config warning", "warning", w)
	}

	tracingCfg := observability.DefaultTracingConfig()
	tracingCfg.ServiceVersion = version
	tracingCfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tracingCfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := observability.InitTracing(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		tp.Shutdown(context.Background())
		return nil, err
	}
	return &runtime{cfg: cfg, app: a, tracer: tp}, nil
}

func (r *runtime) close() {
	r.app.Close()
	r.tracer.Shutdown(context.Background())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx, flags, false)
			if err != nil {
				return err
			}
			defer rt.close()

			serverCfg := httpserver.Config{
				Addr:           rt.cfg.Server.Addr,
				RateLimit:      rt.cfg.Server.RateLimit,
				AllowedOrigins: rt.cfg.Server.AllowedOrigins,
				TopN:           rt.cfg.Retrieval.TopN,
			}
			if addr != "" {
				serverCfg.Addr = addr
			}
			server := httpserver.NewServer(rt.app.Session, rt.app.Retriever, rt.app.Store, serverCfg, nil)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Start(ctx) })
			g.Go(func() error { return rt.app.WatchKnowledge(ctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx, flags, false)
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.app.Session.Submit(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Answer)
			if showSources {
				fmt.Fprintln(out)
				for _, sc := range result.Sources {
					fmt.Fprintf(out, "  %.4f  %s\n", sc.Score, sc.Source)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the chunks used as context")
	return cmd
}

func newRetrieveCmd(flags *globalFlags) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Show the top-ranked chunks for a query without generating",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx, flags, false)
			if err != nil {
				return err
			}
			defer rt.close()

			if n <= 0 {
				n = rt.cfg.Retrieval.TopN
			}
			top, err := rt.app.Retriever.Retrieve(ctx, strings.Join(args, " "), n)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tSOURCE\tTEXT")
			for _, sc := range top {
				fmt.Fprintf(w, "%.4f\t%s\t%s\n", sc.Score, sc.Source, preview(sc.Text, 60))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&n, "top", "n", 0, "Number of chunks (defaults to retrieval.top_n)")
	return cmd
}

func newChatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("chat needs an interactive terminal, use 'kbchat ask' instead")
			}

			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx, flags, true)
			if err != nil {
				return err
			}
			defer rt.close()

			go rt.app.WatchKnowledge(ctx)
			return tui.Run(ctx, rt.app.Session)
		},
	}
}

func newKBCmd(flags *globalFlags) *cobra.Command {
	kbCmd := &cobra.Command{
		Use:   "kb",
		Short: "Knowledge base maintenance",
	}

	var replace bool
	importCmd := &cobra.Command{
		Use:   "import <json-file-or-url> <sqlite-file>",
		Short: "Copy a JSON knowledge base into a SQLite file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			logging.Setup(os.Stderr, logging.Options{Verbose: flags.verbose})

			chunks, err := knowledge.NewJSONSource(args[0]).Load(ctx)
			if err != nil {
				return err
			}

			db, err := knowledge.OpenSQLite(args[1])
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Import(ctx, chunks, replace); err != nil {
				return err
			}
			total, err := db.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d chunks into %s (%d total)\n", len(chunks), db.Path(), total)
			return nil
		},
	}
	importCmd.Flags().BoolVar(&replace, "replace", false, "Delete existing chunks first")

	kbCmd.AddCommand(importCmd)
	return kbCmd
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
