package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cleanDoc = `language: "0.1.0"
items:
  - fn: pick
    params: [{b: bool}]
    returns: i32
    value:
      match: b
      arms:
        - {pattern: true, body: 1}
        - {pattern: false, body: 0}
`

const brokenDoc = `language: "0.1.0"
items:
  - fn: moved
    body:
      - {let: s, value: {str: a}}
      - {let: s2, value: s}
      - {call: println, args: [s]}
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	clean := writeDoc(t, dir, "clean.yaml", cleanDoc)
	broken := writeDoc(t, dir, "broken.yaml", brokenDoc)

	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{"clean", []string{"check", "--color", "never", clean}, exitOK, "1 functions checked, no diagnostics"},
		{"broken", []string{"check", broken}, exitDiagnostics, "error[E0200] UseAfterMove"},
		{"flags after file", []string{"check", broken, "--json"}, exitDiagnostics, `"ok": false`},
		{"missing file", []string{"check", filepath.Join(dir, "nope.yaml")}, exitUsage, ""},
		{"no file", []string{"check"}, exitUsage, ""},
		{"bad color", []string{"check", "--color", "pink", clean}, exitUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(tt.args...)
			if code != tt.code {
				t.Fatalf("exit code %d, want %d\nstdout: %s\nstderr: %s", code, tt.code, out, errOut)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("stdout lacks %q:\n%s", tt.contains, out)
			}
		})
	}
}

func TestCheckWithCache(t *testing.T) {
	dir := t.TempDir()
	broken := writeDoc(t, dir, "broken.yaml", brokenDoc)
	db := filepath.Join(dir, "cache", "results.db")

	for i, want := range []string{"1 functions checked, 1 OwnershipError", "(1 cached)"} {
		code, out, errOut := runCLI("check", "--cache", db, broken)
		if code != exitDiagnostics {
			t.Fatalf("run %d: exit code %d\n%s", i, code, errOut)
		}
		if !strings.Contains(out, want) {
			t.Errorf("run %d: stdout lacks %q:\n%s", i, want, out)
		}
	}
}

func TestConfigFileIsDiscovered(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "yuni.yaml", "language: \">= 0.2.0\"\n")
	clean := writeDoc(t, dir, "clean.yaml", cleanDoc)

	code, _, errOut := runCLI("check", clean)
	if code != exitUsage || !strings.Contains(errOut, "not supported") {
		t.Errorf("config language constraint ignored: code %d\n%s", code, errOut)
	}
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	clean := writeDoc(t, dir, "clean.yaml", cleanDoc)
	broken := writeDoc(t, dir, "broken.yaml", brokenDoc)

	code, out, errOut := runCLI("compile", clean)
	if code != exitOK {
		t.Fatalf("exit code %d\n%s", code, errOut)
	}
	var bundle struct {
		RunID     string `json:"run_id"`
		Functions []struct {
			Name    string                     `json:"name"`
			Types   map[string]string          `json:"types"`
			Matches map[string]json.RawMessage `json:"matches"`
		} `json:"functions"`
	}
	if err := json.Unmarshal([]byte(out), &bundle); err != nil {
		t.Fatalf("invalid bundle: %v\n%s", err, out)
	}
	if bundle.RunID == "" || len(bundle.Functions) != 1 || bundle.Functions[0].Name != "pick" {
		t.Fatalf("unexpected bundle %+v", bundle)
	}
	if len(bundle.Functions[0].Types) == 0 || len(bundle.Functions[0].Matches) != 1 {
		t.Errorf("bundle lacks tables: %+v", bundle.Functions[0])
	}

	code, out, errOut = runCLI("compile", broken)
	if code != exitDiagnostics || out != "" || !strings.Contains(errOut, "UseAfterMove") {
		t.Errorf("compile should refuse: code %d\nstdout: %s\nstderr: %s", code, out, errOut)
	}
}

func TestVersionAndHelp(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{"version json", []string{"version", "--json"}, exitOK, `"tool": "yunic"`},
		{"version", []string{"version"}, exitOK, "yunic 0.1.0 (language "},
		{"overview", []string{"help"}, exitOK, "Commands:"},
		{"help for a command", []string{"help", "compile"}, exitOK, "Usage: yunic compile [flags] <file.yaml>"},
		{"command --help", []string{"check", "--help"}, exitOK, "-j, --jobs N"},
		{"help for an unknown command", []string{"help", "frobnicate"}, exitUsage, ""},
		{"unknown command", []string{"frobnicate"}, exitUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(tt.args...)
			if code != tt.code {
				t.Fatalf("exit code %d, want %d\nstderr: %s", code, tt.code, errOut)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("stdout lacks %q:\n%s", tt.contains, out)
			}
		})
	}
}
