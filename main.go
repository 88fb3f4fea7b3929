package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"promptsmith/app"
	"promptsmith/config"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

var (
	// newApp and stdin are replaced in tests.
	newApp           = app.New
	stdin  io.Reader = os.Stdin
)

// errUsage marks bad command lines; run exits with status 2 for them.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("promptsmith", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(out, "Error: %v\n\n", err)
		printHelp(out)
		return 2
	}

	if *showVersion {
		fmt.Fprintf(out, "promptsmith %s (%s)\n", Version, License)
		return 0
	}
	if *showHelp {
		printHelp(out)
		return 0
	}

	rest := fs.Args()
	name := "tui"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(out, "Error: unknown command %q\n\n", name)
		printHelp(out)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, rest, out); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

type command func(ctx context.Context, args []string, out io.Writer) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"optimize":  runOptimize,
		"image":     runImage,
		"models":    runModels,
		"templates": runTemplates,
		"history":   runHistory,
		"providers": runProviders,
		"serve":     runServe,
		"mcp":       runMCP,
		"tui":       runTUI,
	}
}

// loadConfig reads settings and config.toml and unlocks SSH-encrypted
// credentials with PROMPTSMITH_SSH_PASSPHRASE when set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.InitDebugLog(cfg.DataDir())

	if passphrase := os.Getenv("PROMPTSMITH_SSH_PASSPHRASE"); passphrase != "" {
		cfg.CredentialStore.SetPassphrase(passphrase)
	}
	return cfg, nil
}

// openApp loads the configuration and builds the service container.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(ctx, cfg)
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func printHelp(out io.Writer) {
	helpText := `promptsmith - prompt optimization for image generation

Usage:
  promptsmith [options] <command> [arguments]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  tui                          Interactive terminal UI (default)
  optimize [flags] <prompt>    Optimize a prompt (reads stdin when no prompt is given)
  image [flags] <file|url>     Describe an image as a generation prompt
  models <list|add|remove|enable|disable|default|discover|test>
  templates <list|show|export|import|delete|reset>
  history <list|search|show|delete|clear>
  providers                    List supported providers
  serve [--addr host:port]     Start the HTTP API
  mcp                          Serve MCP tools over stdio

Environment:
  PROMPTSMITH_DATA_DIR         Data directory
  PROMPTSMITH_STORAGE          Storage backend: memory, file, sqlite, redis
  PROMPTSMITH_MODEL            Default model key
  PROMPTSMITH_SSH_PASSPHRASE   Passphrase for an encrypted SSH key
  PROMPTSMITH_DEBUG            Write debug.log to the data directory

Examples:
  promptsmith optimize --style photography "a lighthouse at dusk"
  promptsmith image --model openai-gpt-4o ./photo.jpg
  promptsmith models add --provider deepseek --model deepseek-chat --api-key sk-...
  promptsmith serve --addr 127.0.0.1:8787`
	fmt.Fprintln(out, helpText)
}
