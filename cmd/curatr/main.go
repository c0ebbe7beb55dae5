package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/config"
	"github.com/hpungsan/curatr/internal/db"
	"github.com/hpungsan/curatr/internal/logging"
	"github.com/hpungsan/curatr/internal/mcp"
	"github.com/hpungsan/curatr/internal/metrics"
	"github.com/hpungsan/curatr/internal/ops"
	"github.com/hpungsan/curatr/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"recipients": true, "catalog": true, "recommend": true, "quiz": true,
	"save": true, "remove": true, "refresh": true, "box": true,
	"upcoming": true, "buy": true, "watch": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                        _
    ___ _   _ _ __ __ _| |_ _ __
   / __| | | | '__/ _' | __| '__|
  | (__| |_| | | | (_| | |_| |
   \___|\__,_|_|  \__,_|\__|_|

  Gift recommendations and a Memory Box

  Usage: curatr <command> [options]
         curatr --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database.
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// A missing .env is fine; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fail("failed to load .env: %v", err)
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fail("%v", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	cliMode := isCLIMode(os.Args)
	if !cliMode && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'curatr --help' for usage.\n")
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so MCP mode logs JSON to stderr.
	logger := logging.New(cfg.LogLevel, os.Stderr, !cliMode)
	defer func() { _ = logger.Sync() }()

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	env := ops.NewEnv(store.New(store.NewSQLite(database)), cfg, logger)
	env.ExportDir = filepath.Join(baseDir, db.ExportsDir)
	env.Metrics = metrics.New()

	if cliMode {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	logger.Info("mcp server starting", zap.String("version", Version), zap.String("base_dir", baseDir))
	if err := mcp.Run(env, Version); err != nil {
		fail("%v", err)
	}
}
