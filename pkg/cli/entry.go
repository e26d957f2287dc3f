// Package cli is the command-line surface: sester <file.sest> -o <dir>.
// The parser is an external collaborator; the distribution installs it
// through Frontend before calling Entry.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/config"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/pipeline"
)

// ParseFunc turns one source file into the surface tree the core consumes.
type ParseFunc func(path string, src []byte) (*ast.Source, diagnostics.Error)

// Frontend is the installed parser. The full toolchain sets it at link
// time, the same way the execution backend is selected in sibling tools.
var Frontend ParseFunc

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Entry runs the compiler over argv and returns the process exit code.
func Entry(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("sester", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", "", "output directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: sester <source.sest> -o <dir>")
		return 2
	}
	srcPath := fs.Arg(0)
	if !isSourceFile(srcPath) {
		fmt.Fprintf(stderr, "not a source file: %s\n", srcPath)
		return 2
	}

	proj, err := config.LoadProject(filepath.Join(filepath.Dir(srcPath), config.ProjectFileName))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.ProjectFileName, err)
		return 2
	}
	dir := proj.OutputDir
	if *outDir != "" {
		dir = *outDir
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if Frontend == nil {
		fmt.Fprintln(stderr, "sester: no parser frontend linked into this binary")
		return 2
	}
	parsed, perr := Frontend(srcPath, src)
	if perr != nil {
		printError(stderr, proj, perr)
		return 1
	}

	ctx := pipeline.New(pipeline.CheckProcessor{}, pipeline.EmitProcessor{}).Run(&pipeline.Context{
		Source: parsed,
		OutDir: dir,
	})
	if proj.WarningsEnabled() {
		for _, w := range ctx.Warnings {
			printWarning(stderr, proj, w)
		}
	}
	if ctx.Err != nil {
		printError(stderr, proj, ctx.Err)
		return 1
	}
	if ctx.IOErr != nil {
		fmt.Fprintf(stderr, "%v\n", ctx.IOErr)
		return 1
	}
	return 0
}

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func useColor(proj config.Project, w io.Writer) bool {
	switch proj.Color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func printError(w io.Writer, proj config.Project, err diagnostics.Error) {
	if useColor(proj, w) {
		fmt.Fprintf(w, "%s: %serror[%s]%s: %s\n", err.Span(), colorRed, err.Code(), colorReset, err.Error())
		return
	}
	fmt.Fprintf(w, "%s: error[%s]: %s\n", err.Span(), err.Code(), err.Error())
}

func printWarning(w io.Writer, proj config.Project, warning diagnostics.Warning) {
	if useColor(proj, w) {
		fmt.Fprintf(w, "%s: %swarning[%s]%s: %s\n", warning.Span(), colorYellow, warning.Code(), colorReset, warning.Message())
		return
	}
	fmt.Fprintf(w, "%s: warning[%s]: %s\n", warning.Span(), warning.Code(), warning.Message())
}
