// Package main provides the agentreveal CLI application.
//
// Agentreveal watches workspace directories for files written by
// autonomous coding agents and reveals them in the host editor, while
// filtering out user edits, version-control checkouts, package
// installs, and build output.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	// Define global flags.
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	// Parse command.
	flag.Parse()

	// Handle version flag.
	if *showVersion {
		fmt.Printf("agentreveal %s\n", version)
		return nil
	}

	// Get command.
	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "run":
		return runRunCommand(*configPath, args[1:])
	case "stats":
		return runStatsCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runRunCommand runs the run command.
func runRunCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	workspace := fs.String("workspace", "", "workspace root to watch (overrides configuration)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &runCommand{
		workspace:  *workspace,
		configPath: configPath,
	}

	return cmd.Execute()
}

// runStatsCommand runs the stats command.
func runStatsCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	format := fs.String("format", "table", "output format (table, json)")
	reset := fs.Bool("reset", false, "clear all counters after printing")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &statsCommand{
		format:     *format,
		reset:      *reset,
		configPath: configPath,
	}

	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Agentreveal - reveal agent-written files in the host editor

Usage:
  agentreveal [flags] <command> [command flags]

Commands:
  run         Watch workspace roots and talk to the editor over stdio
  stats       Display decision outcome counters from the journal
  config      Configuration management (show, path, init)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -workspace  Workspace root to watch (overrides configuration)

Stats Command Flags:
  -format     Output format (table, json)
  -reset      Clear all counters after printing

Examples:
  # Watch the configured workspace roots
  agentreveal run

  # Watch a single directory
  agentreveal run -workspace /projects/app

  # Show decision counters
  agentreveal stats

  # Show counters as JSON and reset them
  agentreveal stats -format json -reset

  # Print the effective configuration
  agentreveal config show

  # Write a default configuration file
  agentreveal config init

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
