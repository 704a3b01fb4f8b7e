package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hazyhaar/odfpack/history"
	"github.com/hazyhaar/odfpack/odf"
	"github.com/hazyhaar/odfpack/render"
	"github.com/hazyhaar/odfpack/safe"
	"github.com/hazyhaar/odfpack/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var code int
	switch os.Args[1] {
	case "validate":
		code = cmdValidate(os.Args[2:])
	case "convert":
		code = cmdConvert(ctx, os.Args[2:])
	case "batch":
		code = cmdBatch(ctx, os.Args[2:])
	case "serve":
		code = cmdServe(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		code = 1
	}
	cancel()
	os.Exit(code)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `odfpack: validate content.xml fragments and package them as .odt / .ods

usage:
  odfpack validate <file.xml>...
  odfpack convert  <file.xml> [output]
  odfpack batch    <output.zip> <file.xml>...
  odfpack serve    [config.yaml]

validate  Prints a Markdown report per file. Exits 1 if any file is invalid.
convert   Writes one package next to the input (or to [output]).
batch     Converts every file and bundles the packages. Nothing is written if one fails.
serve     Runs the HTTP service (and MCP on /mcp).
`)
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// cliConverter builds a converter from the service configuration at
// ODFPACK_CONFIG (optional), with LOG_LEVEL honored.
func cliConverter() (*odf.Converter, error) {
	cfg, err := server.LoadConfig(os.Getenv("ODFPACK_CONFIG"))
	if err != nil {
		return nil, err
	}
	return odf.New(converterConfig(cfg, newLogger(cfg.SlogLevel()))), nil
}

func converterConfig(cfg *server.Config, logger *slog.Logger) odf.Config {
	return odf.Config{
		MaxInputBytes:    cfg.MaxUploadBytes(),
		Workers:          cfg.Workers,
		CompressionLevel: cfg.CompressionLevel,
		Logger:           logger,
	}
}

func readInput(conv *odf.Converter, path string) (odf.File, error) {
	data, err := safe.ReadFile(path, conv.Config().MaxInputBytes)
	if err != nil {
		return odf.File{}, err
	}
	return odf.File{Name: filepath.Base(path), Content: string(data)}, nil
}

func cmdValidate(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "validate requires at least one file")
		return 1
	}
	conv, err := cliConverter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	code := 0
	for _, path := range args {
		f, err := readInput(conv, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			code = 1
			continue
		}
		report := conv.Validate(f.Content)
		md, err := render.Markdown(f.Name, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: render: %v\n", path, err)
			code = 1
			continue
		}
		fmt.Println(md)
		if !report.OK() {
			code = 1
		}
	}
	return code
}

func cmdConvert(ctx context.Context, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "convert requires a file path")
		return 1
	}
	conv, err := cliConverter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	f, err := readInput(conv, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	out, err := conv.Convert(ctx, f)
	if err != nil {
		return reportFailure(f.Name, err)
	}

	dst := filepath.Join(filepath.Dir(args[0]), out.Name)
	if len(args) >= 2 {
		dst = args[1]
	}
	if sameFile(dst, args[0]) {
		fmt.Fprintf(os.Stderr, "output %s would overwrite the input; pass an explicit [output]\n", dst)
		return 1
	}
	if err := os.WriteFile(dst, out.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", dst, err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "done: %s (%s, %d bytes)\n", dst, out.DocType.Label(), len(out.Data))
	return 0
}

func cmdBatch(ctx context.Context, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "batch requires an output path and at least one file")
		return 1
	}
	conv, err := cliConverter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	files := make([]odf.File, 0, len(args)-1)
	for _, path := range args[1:] {
		f, err := readInput(conv, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		files = append(files, f)
	}

	for _, path := range args[1:] {
		if sameFile(args[0], path) {
			fmt.Fprintf(os.Stderr, "output %s would overwrite input %s\n", args[0], path)
			return 1
		}
	}

	out, err := conv.ConvertBatch(ctx, files)
	if err != nil {
		return reportFailure("batch", err)
	}
	if err := os.WriteFile(args[0], out.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", args[0], err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "done: %d packages in %s\n", len(files), args[0])
	return 0
}

// sameFile reports whether dst names the existing file src. A missing dst
// never matches.
func sameFile(dst, src string) bool {
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return os.SameFile(di, si)
}

// reportFailure prints the validation report when there is one, otherwise
// the error.
func reportFailure(name string, err error) int {
	var ve *odf.ValidationError
	if errors.As(err, &ve) {
		if md, rerr := render.Markdown(ve.Name, ve.Report); rerr == nil {
			fmt.Println(md)
		}
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
	return 1
}

func cmdServe(ctx context.Context, args []string) int {
	var path string
	if len(args) >= 1 {
		path = args[0]
	}
	cfg, err := server.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.SlogLevel())

	store, err := history.Open(cfg.DBPath, history.WithLogger(logger))
	if err != nil {
		logger.Error("open history", "path", cfg.DBPath, "error", err)
		return 1
	}
	defer store.Close()

	conv := odf.New(converterConfig(cfg, logger))
	if err := server.New(cfg, conv, store, logger).ListenAndServe(ctx); err != nil {
		logger.Error("server", "error", err)
		return 1
	}
	return 0
}
