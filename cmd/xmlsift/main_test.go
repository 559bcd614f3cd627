package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/chunker"
	"github.com/dgallion1/xmlsift/internal/config"
	"github.com/dgallion1/xmlsift/internal/doctree"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xml", "a.pom", "notes.txt", "sub/c.xsd"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<a/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "notes.txt")

	got, err := collectFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.pom"),
		filepath.Join(dir, "b.xml"),
		filepath.Join(dir, "sub/c.xsd"),
		single,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, got[i])
		}
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestAvgTokens(t *testing.T) {
	if avgTokens(nil) != 0 {
		t.Error("expected 0 for no chunks")
	}
	chunks := []doctree.Chunk{{TokenEstimate: 10}, {TokenEstimate: 20}}
	if got := avgTokens(chunks); got != 15 {
		t.Errorf("expected 15, got %v", got)
	}
}

func TestIndent(t *testing.T) {
	if got := indent("<a>\n<b/>\n", "  "); got != "  <a>\n  <b/>" {
		t.Errorf("unexpected indent %q", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := map[string]bool{"detect": false, "analyze": false, "chunk": false, "prompts": false, "batch": false, "handlers": false, "runs": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestChunkSettingsOnlyGateChunkingCommands(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = config.Default()
	cfg.OverlapSize = cfg.MaxChunkSize

	for _, c := range []*cobra.Command{chunkCmd, promptsCmd, batchCmd} {
		if c.PreRunE == nil {
			t.Errorf("expected %s to validate chunk settings", c.Name())
			continue
		}
		var ce *chunker.ConfigError
		if err := c.PreRunE(c, nil); !errors.As(err, &ce) {
			t.Errorf("%s: expected *chunker.ConfigError, got %v", c.Name(), err)
		}
	}
	for _, c := range []*cobra.Command{detectCmd, analyzeCmd, handlersCmd, runsCmd} {
		if c.PreRunE != nil {
			t.Errorf("expected %s not to depend on chunk settings", c.Name())
		}
	}

	cfg = config.Default()
	if err := requireChunking(chunkCmd, nil); err != nil {
		t.Errorf("expected default chunk settings to pass, got %v", err)
	}
}
