package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/star/launchdash/internal/dashboard"
	"github.com/star/launchdash/internal/filter"
	"github.com/star/launchdash/internal/launch"
	"github.com/star/launchdash/internal/render"
)

type renderOptions struct {
	site   string
	low    float64
	high   float64
	format string
	outDir string
	width  int
	height int
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render both dashboard charts for a selection to files",
		Example: `  launchctl render --site "CCAFS LC-40" --low 2000 --high 8000 --format png --out charts/
  launchctl render --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := launch.Load(cmd.Context(), launch.SourceConfig{Source: root.source}, root.logger(cmd))
			if err != nil {
				return err
			}

			st := dashboard.DefaultState(ds)
			st.Site = filter.Selection(opts.site)
			if cmd.Flags().Changed("low") {
				st.Payload.Low = opts.low
			}
			if cmd.Flags().Changed("high") {
				st.Payload.High = opts.high
			}
			if st.Payload.Low > st.Payload.High {
				return fmt.Errorf("--low %g exceeds --high %g", st.Payload.Low, st.Payload.High)
			}

			if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			app := dashboard.New(ds)
			renderer := render.New(opts.width, opts.height)
			for _, o := range app.Update(nil, st) {
				path, err := writeChart(renderer, o, opts.format, opts.outDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.site, "site", string(filter.All), "launch site, or ALL")
	f.Float64Var(&opts.low, "low", 0, "minimum payload in kg (default: dataset minimum)")
	f.Float64Var(&opts.high, "high", 0, "maximum payload in kg (default: dataset maximum)")
	f.StringVarP(&opts.format, "format", "f", "svg", "output format: svg, png or json")
	f.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	f.IntVar(&opts.width, "width", 800, "chart width in pixels")
	f.IntVar(&opts.height, "height", 450, "chart height in pixels")
	return cmd
}

func writeChart(renderer *render.Renderer, o dashboard.Output, format, dir string) (string, error) {
	if format == "json" {
		path := filepath.Join(dir, o.Component+".json")
		data, err := json.MarshalIndent(o.Figure, "", "  ")
		if err != nil {
			return "", err
		}
		return path, os.WriteFile(path, data, 0o644)
	}

	f, err := render.ParseFormat(format)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, o.Component+"."+string(f))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := renderer.Render(o.Figure, f, file); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}
