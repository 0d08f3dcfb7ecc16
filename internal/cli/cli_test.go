package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/yunilang/yuni/internal/analysis"
	"github.com/yunilang/yuni/internal/astio"
	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/position"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name           string
		verbose, debug bool
		want           []string
	}{
		{"quiet", false, false, []string{"[WARN]", "[ERROR]"}},
		{"verbose", true, false, []string{"[INFO]", "[WARN]", "[ERROR]"}},
		{"debug", false, true, []string{"[INFO]", "[DEBUG]", "[WARN]", "[ERROR]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLoggerTo(&buf, tt.verbose, tt.debug)
			l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
			l.Info("info %d", 1)
			l.Debug("debug")
			l.Warn("warn")
			l.Error("error")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines: %q", len(lines), buf.String())
			}
			for i, line := range lines {
				if !strings.HasPrefix(line, tt.want[i]+" 03:04:05 "+l.RunID[:8]+": ") {
					t.Errorf("line %d = %q", i, line)
				}
			}
		})
	}
}

func TestLoggerRunIDsDiffer(t *testing.T) {
	a, b := NewLoggerTo(&bytes.Buffer{}, false, false), NewLoggerTo(&bytes.Buffer{}, false, false)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids %q and %q", a.RunID, b.RunID)
	}
}

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVersion(&buf, "yunic", false); err != nil {
		t.Fatal(err)
	}
	want := "yunic " + Version + " (language " + astio.LanguageVersion + ", "
	if !strings.HasPrefix(buf.String(), want) {
		t.Errorf("got %q, want prefix %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteVersion(&buf, "yunic", true); err != nil {
		t.Fatal(err)
	}
	var b Build
	if err := json.Unmarshal(buf.Bytes(), &b); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if b.Tool != "yunic" || b.Version != Version || b.Language != astio.LanguageVersion || b.Target == "" {
		t.Errorf("unexpected build %+v", b)
	}
}

func TestCommitOf(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"no stamp", nil, ""},
		{"clean", []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}, "0123456789ab"},
		{"dirty", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}, {Key: "vcs.modified", Value: "true"}}, "abc+dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commitOf(tt.settings); got != tt.want {
				t.Errorf("commitOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	h := Help{
		Tool:    "yunic",
		Summary: "checks things",
		Commands: []Command{
			{Name: "check", Operand: "<file.yaml>", Summary: "Check it.", Flags: []Flag{
				{Name: "jobs", Short: "j", Arg: "N", Help: "parallelism", Default: "4"},
				{Name: "json", Help: "machine output"},
			}, Examples: []string{"yunic check a.yaml"}},
			{Name: "version", Summary: "Show versions."},
		},
	}

	var buf bytes.Buffer
	h.Write(&buf)
	for _, want := range []string{"yunic: checks things", "Commands:", "check     Check it.", "version   Show versions."} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("overview lacks %q:\n%s", want, buf.String())
		}
	}

	cmd, ok := h.Lookup("check")
	if !ok {
		t.Fatal("check not found")
	}
	if _, ok := h.Lookup("build"); ok {
		t.Error("unknown command found")
	}
	buf.Reset()
	h.WriteCommand(&buf, cmd)
	for _, want := range []string{
		"Usage: yunic check [flags] <file.yaml>",
		"-j, --jobs N   parallelism (default: 4)",
		"    --json     machine output",
		"Examples:\n  yunic check a.yaml",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("command help lacks %q:\n%s", want, buf.String())
		}
	}
	if got := h.Commands[1].Synopsis("yunic"); got != "yunic version" {
		t.Errorf("synopsis = %q", got)
	}

	if f, err := cmd.OperandOf("yunic", []string{"a.yaml"}); err != nil || f != "a.yaml" {
		t.Errorf("OperandOf = %q, %v", f, err)
	}
	if _, err := cmd.OperandOf("yunic", nil); err == nil || !strings.Contains(err.Error(), "missing <file.yaml>") {
		t.Errorf("missing operand error = %v", err)
	}
	if _, err := cmd.OperandOf("yunic", []string{"a.yaml", "b.yaml"}); err == nil || !strings.Contains(err.Error(), "unexpected arguments after a.yaml: b.yaml") {
		t.Errorf("extra operand error = %v", err)
	}
}

func TestPrinterDiagnostic(t *testing.T) {
	d := diagnostics.New(diagnostics.UseAfterMove, position.At("main.yaml", 4, 9)).
		InFunction("main").
		Message("use of moved value `s`").
		Secondary(position.At("main.yaml", 3, 9), "value moved here").
		Hint("borrow with `&s` instead").
		Detail("dump").
		Build()

	var buf bytes.Buffer
	p := &Printer{W: &buf}
	p.Diagnostic(d)
	out := buf.String()
	for _, want := range []string{
		"error[E0200] UseAfterMove: use of moved value `s`",
		"--> main.yaml:4:9 (in `main`)",
		"main.yaml:3:9: value moved here",
		"= help: borrow with `&s` instead",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dump") || strings.Contains(out, "\033[") {
		t.Errorf("plain non-verbose output has detail or color:\n%s", out)
	}

	buf.Reset()
	p = &Printer{W: &buf, Color: true, Verbose: true}
	p.Diagnostic(d)
	if !strings.Contains(buf.String(), "      dump") || !strings.Contains(buf.String(), colorRed) {
		t.Errorf("verbose colored output:\n%s", buf.String())
	}
}

func TestUseColorModes(t *testing.T) {
	if !UseColor("always", nil) || UseColor("never", nil) || UseColor("auto", nil) {
		t.Error("color mode decisions are wrong")
	}
}

const doc = `language: "0.1.0"
items:
  - fn: ok
    params: [{b: bool}]
    returns: i32
    value:
      match: b
      arms:
        - {pattern: true, body: 1}
        - {pattern: false, body: 2}
  - fn: bad
    body:
      - {let: s, value: {str: a}}
      - {let: s2, value: s}
      - {call: println, args: [s]}
`

func analyze(t *testing.T, src string) *analysis.Report {
	t.Helper()
	prog, err := astio.Decode([]byte(src), "main.yaml", astio.Options{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	r, err := analysis.Analyze(context.Background(), prog, analysis.Options{})
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return r
}

func TestCheckOutput(t *testing.T) {
	out := NewCheckOutput("run", "main.yaml", analyze(t, doc))
	if out.OK || len(out.Functions) != 2 || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if !out.Functions[0].OK || out.Functions[1].OK || out.Functions[1].Diagnostics != 1 {
		t.Errorf("function statuses %+v", out.Functions)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"kind": "UseAfterMove"`) {
		t.Errorf("diagnostic kind not rendered by name:\n%s", buf.String())
	}
}

func TestBundle(t *testing.T) {
	src := strings.SplitN(doc, "  - fn: bad", 2)[0]
	r := analyze(t, src)
	if !r.OK() {
		t.Fatalf("unexpected diagnostics %v", r.Diagnostics)
	}
	b, err := NewBundle("run", "main.yaml", r)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Functions) != 1 || len(b.Functions[0].Matches) != 1 || len(b.Functions[0].Types) == 0 {
		t.Fatalf("unexpected bundle %+v", b)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, b); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"node": "switch"`, `"node": "leaf"`, `"exhaustive": true`, `"language": "0.1.0"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("bundle lacks %s:\n%s", want, buf.String())
		}
	}
}

func TestBundleRejectsCachedFunctions(t *testing.T) {
	r := analyze(t, doc)
	r.Functions[0] = &analysis.FunctionReport{Name: "ok", Cached: true}
	if _, err := NewBundle("run", "main.yaml", r); err == nil || !strings.Contains(err.Error(), "ok") {
		t.Errorf("expected a rejection naming ok, got %v", err)
	}
}
