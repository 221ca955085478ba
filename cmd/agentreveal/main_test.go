package main

import (
	"flag"
	"testing"

	"agentreveal/pkg/engine"
	"agentreveal/pkg/watcher"
)

// TestRunStatsFlags tests stats command flag parsing.
func TestRunStatsFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantCmd statsCommand
	}{
		{
			name: "default flags",
			args: []string{},
			wantCmd: statsCommand{
				format:     "table",
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "JSON format",
			args: []string{"-format", "json"},
			wantCmd: statsCommand{
				format:     "json",
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "reset after printing",
			args: []string{"-reset"},
			wantCmd: statsCommand{
				format:     "table",
				reset:      true,
				configPath: "/test/config.yaml",
			},
		},
		{
			name: "combined flags",
			args: []string{"-format", "json", "-reset"},
			wantCmd: statsCommand{
				format:     "json",
				reset:      true,
				configPath: "/test/config.yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("stats", flag.ContinueOnError)
			format := fs.String("format", "table", "output format")
			reset := fs.Bool("reset", false, "clear all counters after printing")

			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := &statsCommand{
				format:     *format,
				reset:      *reset,
				configPath: "/test/config.yaml",
			}

			if got.format != tt.wantCmd.format {
				t.Errorf("format = %q, want %q", got.format, tt.wantCmd.format)
			}
			if got.reset != tt.wantCmd.reset {
				t.Errorf("reset = %v, want %v", got.reset, tt.wantCmd.reset)
			}
		})
	}
}

// TestRunCommandFlags tests run command flag parsing.
func TestRunCommandFlags(t *testing.T) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	workspace := fs.String("workspace", "", "workspace root")

	if err := fs.Parse([]string{"-workspace", "/projects/app"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd := &runCommand{
		workspace:  *workspace,
		configPath: "/test/config.yaml",
	}

	if cmd.workspace != "/projects/app" {
		t.Errorf("workspace = %q, want /projects/app", cmd.workspace)
	}
}

func TestEventKind(t *testing.T) {
	if got := eventKind(watcher.OpCreate); got != engine.KindCreated {
		t.Errorf("eventKind(OpCreate) = %v, want KindCreated", got)
	}
	if got := eventKind(watcher.OpWrite); got != engine.KindModified {
		t.Errorf("eventKind(OpWrite) = %v, want KindModified", got)
	}
}

// TestStatsDisplayEmpty verifies the table output path handles an
// empty counter set.
func TestStatsDisplayEmpty(t *testing.T) {
	cmd := &statsCommand{format: "table"}
	if err := cmd.display(map[string]uint64{}); err != nil {
		t.Errorf("display() error = %v", err)
	}
}
