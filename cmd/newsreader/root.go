package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datallboy/newsreader/internal/api"
	"github.com/datallboy/newsreader/internal/app"
	"github.com/datallboy/newsreader/internal/browser"
	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/infra/config"
	"github.com/datallboy/newsreader/internal/infra/logger"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const articleSeparator = "\n==================================================================================="

// Execute builds the command tree and runs it with args.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsreader",
		Short: "Read newsgroups from an NNTP server",
		Long: "Without --groups, prints every active group with its article count.\n" +
			"With --groups, prints every article of each listed group.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runRead,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "optional YAML config file")
	pf.String("server", "", "IP / address of the NNTP server")
	pf.String("port", "nntp", "port number or service name")
	pf.Duration("timeout", 30*time.Second, "per-command timeout (0 disables)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-file", "", "append logs to this file instead of stderr")

	f := root.Flags()
	f.StringSlice("groups", nil, "comma-separated list of groups / not set = show group list")
	f.String("content", "body", "content of articles (values: full, body [default], header)")
	f.Bool("canceled", false, "show canceled articles; without it cancel messages are skipped")

	root.AddCommand(newArticleCmd(), newExistsCmd(), newServeCmd())
	return root
}

func newArticleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article <message-id>...",
		Short: "Print articles by message id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, appCtx *app.Context, r domain.Reader) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					text, err := r.Article(ctx, domain.MessageID(id), appCtx.Config.ContentMode())
					if err != nil {
						return err
					}
					printArticle(out, text)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("content", "body", "content of articles (values: full, body [default], header)")
	return cmd
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <message-id>...",
		Short: "Check whether the server carries articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, appCtx *app.Context, r domain.Reader) error {
				for _, id := range args {
					ok, err := r.Exists(ctx, domain.MessageID(id))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%t\n", id, ok)
				}
				return nil
			})
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP view of the news server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	return cmd
}

// setup loads configuration and the logger for cmd. The returned closer
// releases the log file.
func setup(cmd *cobra.Command) (*app.Context, io.Closer, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	var log *logger.Logger
	if cfg.Log.Path != "" {
		log, err = logger.New(cfg.Log.Path, level, cfg.Log.IncludeStdout)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
	} else {
		log = logger.NewWriter(cmd.ErrOrStderr(), level)
	}

	return app.NewContext(cfg, log), log, nil
}

// withSession runs fn with a fresh session that is closed on every path.
func withSession(cmd *cobra.Command, fn func(context.Context, *app.Context, domain.Reader) error) error {
	appCtx, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	r, err := appCtx.Open(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	return fn(ctx, appCtx, r)
}

func runRead(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, appCtx *app.Context, r domain.Reader) error {
		cfg := appCtx.Config
		svc := browser.NewService(r, appCtx.Logger, cfg.ContentMode(), cfg.Read.Canceled)
		out := cmd.OutOrStdout()

		if len(cfg.Read.Groups) == 0 {
			groups, err := svc.Groups(ctx)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Fprintf(out, "%s     (%d)\n", g.Name, g.Count)
			}
			return nil
		}

		for _, group := range cfg.Read.Groups {
			err := svc.Walk(ctx, group, func(a domain.Article) error {
				printArticle(out, a.Content)
				return nil
			})
			if err != nil {
				return fmt.Errorf("group %s: %w", group, err)
			}
		}
		return nil
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	srv := &http.Server{
		Addr:              appCtx.Config.API.Listen,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		appCtx.Logger.Info("HTTP gateway listening on %s for %s", srv.Addr, appCtx.Config.Server.Host)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appCtx.Logger.Info("HTTP gateway stopped")
	return nil
}

func printArticle(out io.Writer, text string) {
	fmt.Fprint(out, strings.TrimRight(text, "\r\n"))
	fmt.Fprintln(out, articleSeparator)
}
