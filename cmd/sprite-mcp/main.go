package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/sprite-tools-mcp/internal/config"
	"github.com/ironsheep/sprite-tools-mcp/internal/httpapi"
	"github.com/ironsheep/sprite-tools-mcp/internal/server"
	"github.com/ironsheep/sprite-tools-mcp/internal/sheet"
	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
	"github.com/ironsheep/sprite-tools-mcp/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("sprite-tools-mcp - combine images into sprite sheets")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sprite-tools-mcp                          Run the MCP server on stdin/stdout")
	fmt.Println("  sprite-tools-mcp combine <layout> [out]   Build the sheet described by a layout file")
	fmt.Println("  sprite-tools-mcp watch <layout> [out]     Rebuild whenever the layout or an image changes")
	fmt.Println("  sprite-tools-mcp serve [addr]             Serve the HTTP API")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Layout files may be JSON, YAML or TOML, chosen by extension.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug|info|warn|error   Log level (stderr)\n", config.EnvLogLevel)
	fmt.Printf("  %s=%s               HTTP listen address for serve\n", config.EnvHTTPAddr, config.DefaultHTTPAddr)
	fmt.Printf("  %s=DIR                        Directory serve may read and write (default: current)\n", config.EnvHTTPRoot)
	fmt.Printf("  %s=N                 Cap on parallel image decodes\n", config.EnvDecodeConcurrency)
	fmt.Printf("  %s=N                   Reject source images with more pixels\n", config.EnvMaxImagePixels)
}

func main() {
	// Handle --version and --help before touching the environment
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sprite-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	level, _ := cfg.SlogLevel()

	decodeOpts := cfg.DecodeOptions()

	if len(os.Args) < 2 {
		// The MCP client owns stderr; stay quiet unless asked.
		if cfg.LogLevel != "" {
			sprite.SetLogger(newLogger(level))
		}
		runMCP(context.Background(), cfg, decodeOpts)
		return
	}

	sprite.SetLogger(newLogger(level))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	args := os.Args[2:]

	switch os.Args[1] {
	case "combine":
		if len(args) < 1 || len(args) > 2 {
			log.Fatal("usage: sprite-tools-mcp combine <layout> [output]")
		}
		err = runCombine(ctx, layoutRequest(args), decodeOpts)
	case "watch":
		if len(args) < 1 || len(args) > 2 {
			log.Fatal("usage: sprite-tools-mcp watch <layout> [output]")
		}
		err = runWatch(ctx, layoutRequest(args), decodeOpts)
	case "serve":
		addr := cfg.HTTPAddr
		if len(args) > 0 {
			addr = args[0]
		}
		err = runServe(ctx, addr, cfg.HTTPRoot, cfg.Debug(), decodeOpts)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		stop()
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// layoutRequest builds a request from "<layout> [output]" arguments.
func layoutRequest(args []string) sheet.Request {
	req := sheet.Request{Layout: args[0]}
	if len(args) > 1 {
		req.Output = args[1]
	}
	return req
}

func runMCP(ctx context.Context, cfg config.Config, decodeOpts []sprite.Option) {
	if cfg.Debug() {
		log.Printf("Sprite MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(decodeOpts...)
	if cfg.Debug() {
		srv.SetDebugLogger(log.Default())
	}
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runCombine(ctx context.Context, req sheet.Request, decodeOpts []sprite.Option) error {
	result, err := sheet.Build(ctx, req, decodeOpts...)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %dx%d, %d images\n", result.Output, result.Width, result.Height, len(result.Sprites))
	if result.Stylesheet != "" {
		fmt.Printf("%s\n", result.Stylesheet)
	}
	return nil
}

func runWatch(ctx context.Context, req sheet.Request, decodeOpts []sprite.Option) error {
	l, err := sheet.Resolve(req)
	if err != nil {
		return err
	}
	log.Printf("Watching %s (Ctrl-C to stop)", req.Layout)

	build := func(ctx context.Context) error {
		return runCombine(ctx, req, decodeOpts)
	}
	return watch.Run(ctx, req.Layout, l.Output, build)
}

func runServe(ctx context.Context, addr, root string, debug bool, decodeOpts []sprite.Option) error {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if debug {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	httpapi.RegisterRoutes(r, root, decodeOpts...)

	srv := &http.Server{Addr: addr, Handler: r}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Serving sprite API on %s (files under %s)", addr, displayRoot(root))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func displayRoot(root string) string {
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}
