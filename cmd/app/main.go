package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/scribe/internal"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/storage"
	pkgconfig "github.com/starford/scribe/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func convert(_ context.Context, cmd *cli.Command) error {
	from, err := docservice.ParseFormat(cmd.String("from"))
	if err != nil {
		return err
	}
	to, err := docservice.ParseFormat(cmd.String("to"))
	if err != nil {
		return err
	}

	var data []byte
	if path := cmd.Args().First(); path != "" && path != "-" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out, warning, err := internal.Convert(string(data), internal.ConvertOptions{
		From: from,
		To:   to,
		HTML: codec.HTMLOptions{Sanitize: cmd.Bool("sanitize"), Minify: cmd.Bool("minify")},
	})
	if err != nil {
		return err
	}
	if warning != "" {
		slog.Warn("input was not a valid document state", slog.String("error", warning))
	}

	dest := cmd.String("out")
	if dest == "" {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	fs, err := storage.NewFS(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("open output dir: %w", err)
	}
	return fs.Write(filepath.Base(abs), []byte(out))
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:    "scribe",
		Usage:   "Rich-text document service with editing sessions, format conversion and full-text search",
		Version: version,
		Action:  serve,
		Flags:   []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Flags:  []cli.Flag{configFlag},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Flags:  []cli.Flag{configFlag},
				Action: serveMCP,
			},
			{
				Name:      "convert",
				Usage:     "Convert a document between json, markdown, html and text",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Value: "auto", Usage: "Input format (auto, json, markdown, html, text)"},
					&cli.StringFlag{Name: "to", Value: "html", Usage: "Output format (json, markdown, html, text)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write to this file instead of stdout"},
					&cli.BoolFlag{Name: "sanitize", Usage: "Sanitize HTML output"},
					&cli.BoolFlag{Name: "minify", Usage: "Minify HTML output"},
				},
				Action: convert,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
