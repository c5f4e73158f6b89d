package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gridplan/gridplan/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to text", "", []string{pipeline.FormatText}},
		{"single", "json", []string{"json"}},
		{"multiple", "json,svg,dot", []string{"json", "svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatExt(t *testing.T) {
	if got := formatExt(pipeline.FormatText); got != "txt" {
		t.Errorf("formatExt(text) = %q, want %q", got, "txt")
	}
	if got := formatExt(pipeline.FormatSVG); got != "svg" {
		t.Errorf("formatExt(svg) = %q, want %q", got, "svg")
	}
	if got := formatExt(pipeline.FormatNetSVG); got != "net.svg" {
		t.Errorf("formatExt(netsvg) = %q, want %q", got, "net.svg")
	}
}

func TestWriteArtifactsSingleFormatExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"json": []byte(`{"ok":true}`)},
		formats:   []string{"json"},
		input:     "design.toml",
		output:    out,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("output = %q, want %q", data, `{"ok":true}`)
	}
}

func TestWriteArtifactsMultipleFormats(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "blinky")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"json": []byte("{}"),
			"svg":  []byte("<svg/>"),
		},
		formats: []string{"json", "svg"},
		input:   "blinky.toml",
		output:  base,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	for _, ext := range []string{"json", "svg"} {
		path := base + ".place." + ext
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected artifact %s: %v", path, err)
		}
	}
}

func TestWriteArtifactsDerivesBaseFromInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "counter.toml")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"dot": []byte("digraph {}")},
		formats:   []string{"dot"},
		input:     input,
		output:    "",
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	// Without -o, non-text formats derive their path from the input name.
	if _, err := os.Stat(filepath.Join(dir, "counter.place.dot")); err != nil {
		t.Errorf("expected derived artifact path: %v", err)
	}
}
