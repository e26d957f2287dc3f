// Package pipeline stages compilation: semantic analysis over a parsed
// source, then emission. The parser in front and the code generator behind
// are external; stages communicate through the shared Context.
package pipeline

import (
	"github.com/sester-lang/sester/internal/analyzer"
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/backend"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/modules"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Context is the state threaded through the stages.
type Context struct {
	Source *ast.Source
	OutDir string

	TypeCtx  *typesystem.Context
	Env      symbols.Env
	Abs      symbols.Abstracted
	Space    string
	Bindings []ir.Binding

	Warnings []diagnostics.Warning
	Err      diagnostics.Error
	IOErr    error

	EmittedFiles []string
}

// Processor is one stage.
type Processor interface {
	Process(*Context) *Context
}

// Pipeline runs stages in order, stopping at the first error; the core
// never recovers past one.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

func (p *Pipeline) Run(ctx *Context) *Context {
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if ctx.Err != nil || ctx.IOErr != nil {
			return ctx
		}
	}
	return ctx
}

// CheckProcessor elaborates the source: name resolution, type inference,
// module elaboration, IR production.
type CheckProcessor struct{}

func (CheckProcessor) Process(ctx *Context) *Context {
	tctx := typesystem.NewContext()
	chk, env := analyzer.NewWithPrimitives(tctx)
	el := modules.New(chk)

	env, abs, space, bindings, err := el.ElaborateSource(env, ctx.Source)
	ctx.TypeCtx = tctx
	ctx.Warnings = chk.Warnings
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Env = env
	ctx.Abs = abs
	ctx.Space = space
	ctx.Bindings = bindings
	return ctx
}

// EmitProcessor serializes the elaborated bindings, one file per module
// space, for the target code generator.
type EmitProcessor struct{}

func (EmitProcessor) Process(ctx *Context) *Context {
	files, err := backend.Emit(ctx.OutDir, ctx.Space, ctx.Bindings)
	if err != nil {
		ctx.IOErr = err
		return ctx
	}
	ctx.EmittedFiles = files
	return ctx
}
