package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/stencil/internal/dev"
	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/publish"
)

type renderOptions struct {
	output  string
	publish string
	key     string
	pretty  bool
	page    bool
	clicks  []string
}

func renderCmd(flags *globalFlags) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template once",
		Long: `Render a template with its data and print the resulting markup.

Events can be fired before the snapshot is taken, and the snapshot can
be published to a directory or an S3 bucket together with its data.

Examples:
  stencil render -t counter.html --set count=3
  stencil render -t counter.html --click button --click button --pretty
  stencil render --publish s3://my-bucket/snapshots/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Write markup to a file instead of stdout")
	cmd.Flags().StringVar(&opts.publish, "publish", "", "Publish to a directory, file:// or s3:// URI (default from config)")
	cmd.Flags().StringVar(&opts.key, "key", "", "Object key of the published snapshot (default: <name>.html)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	cmd.Flags().BoolVar(&opts.page, "page", false, "Wrap the markup in a complete HTML document")
	cmd.Flags().StringArrayVar(&opts.clicks, "click", nil, "Click the first element matching a selector before rendering")

	return cmd
}

func runRender(ctx context.Context, stdout io.Writer, flags *globalFlags, opts renderOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := loadProject(flags)
	if err != nil {
		return err
	}
	s, err := p.session(nil)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, sel := range opts.clicks {
		if _, err := s.Dispatch(sel, "click", nil); err != nil {
			return err
		}
	}
	if _, err := s.Flush(); err != nil {
		return err
	}
	if err := s.LastError(); err != nil {
		return err
	}

	pretty := opts.pretty || p.cfg.Render.Pretty
	var out string
	if opts.page {
		p.cfg.Render.Pretty = pretty
		out, err = s.Page(p.cfg.Name)
	} else {
		out, err = s.HTML(pretty)
	}
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	if err := writeOutput(stdout, opts.output, out); err != nil {
		return err
	}

	dest := opts.publish
	if dest == "" {
		dest = p.cfg.Render.Publish
	}
	if dest == "" {
		return nil
	}
	return publishSnapshot(ctx, dest, opts.key, p.cfg.Name, out, s)
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// publishSnapshot stores the markup under key and the data next to it.
func publishSnapshot(ctx context.Context, dest, key, name, markup string, s *dev.Session) error {
	store, err := publish.Open(ctx, dest)
	if err != nil {
		return err
	}
	if key == "" {
		key = name + ".html"
	}
	if err := store.Put(ctx, key, []byte(markup), publish.ContentTypeHTML); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.Data(), "", "  ")
	if err != nil {
		return errors.New(errors.CodePublish).Wrap(err)
	}
	dataKey := strings.TrimSuffix(key, ".html") + ".json"
	if err := store.Put(ctx, dataKey, data, publish.ContentTypeJSON); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m published %s and %s to %s\n", key, dataKey, dest)
	return nil
}
