package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/stencil/internal/dev"
	"github.com/vango-dev/stencil/pkg/metrics"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port      int
		host      string
		deferred  bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a template and stream its mutations",
		Long: `Mount a template and serve it over HTTP.

State changes and events arrive as HTTP requests; the host mutations
of every pass are streamed to WebSocket clients at /_stencil/stream.
The template and data files are watched and reloaded on change.

Examples:
  stencil serve -t counter.html
  stencil serve --port=8080 --deferred
  curl -X POST 'localhost:3000/events/click?target=button'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags)
			if err != nil {
				return err
			}

			if port > 0 {
				p.cfg.Serve.Port = port
			}
			if host != "" {
				p.cfg.Serve.Host = host
			}
			if deferred {
				p.cfg.Serve.Deferred = true
			}
			if noMetrics {
				p.cfg.Serve.Metrics = false
			}
			if err := p.cfg.Validate(); err != nil {
				return err
			}
			return runServe(p)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVar(&deferred, "deferred", false, "Hold passes until POST /flush")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Do not expose /metrics")

	return cmd
}

func runServe(p *project) error {
	var m *metrics.Metrics
	if p.cfg.Serve.Metrics {
		m = metrics.New()
	}

	s, err := p.session(m)
	if err != nil {
		return err
	}
	defer s.Close()

	server := dev.NewServer(dev.ServerOptions{
		Config:       p.cfg,
		Session:      s,
		Metrics:      m,
		TemplatePath: p.templatePath,
		DataPath:     p.dataPath,
		Logger:       p.logger,
	})

	fmt.Print(banner)
	fmt.Printf("  serving %s at http://%s\n\n", p.templatePath, p.cfg.ServeAddress())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
	}()

	return server.Start(ctx)
}
