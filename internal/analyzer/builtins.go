package analyzer

import (
	"github.com/sester-lang/sester/internal/config"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Builtin holds the type IDs of the primitive types the checker itself
// needs to mention: lists for list literals and options for optional
// parameters.
type Builtin struct {
	List   typesystem.VariantID
	Option typesystem.VariantID

	OptionNone symbols.CtorEntry
	OptionSome symbols.CtorEntry
}

// ListOf builds list<elem>.
func (b *Builtin) ListOf(elem typesystem.Type) typesystem.Type {
	return typesystem.Data{ID: b.List, Args: []typesystem.Type{elem}}
}

// OptionOf builds option<elem>.
func (b *Builtin) OptionOf(elem typesystem.Type) typesystem.Type {
	return typesystem.Data{ID: b.Option, Args: []typesystem.Type{elem}}
}

// Primitives builds the initial environment: the builtin type constructors
// and the process primitives the target runtime provides.
func Primitives(ctx *typesystem.Context) (symbols.Env, *Builtin) {
	env := symbols.NewEnv()
	b := &Builtin{}

	// list<'a> has dedicated syntax; its constructors never resolve by name.
	b.List = ctx.FreshVariantID()
	listParam := ctx.FreshBoundID(typesystem.UniversalKind{})
	ctx.RegisterVariant(b.List, &typesystem.VariantDef{
		Name:   config.ListTypeName,
		Params: []typesystem.BoundID{listParam},
	})
	env = env.AddType(config.ListTypeName, symbols.TypeEntry{ID: b.List, Arity: 1})

	// option<'a> backs optional arguments.
	b.Option = ctx.FreshVariantID()
	optParam := ctx.FreshBoundID(typesystem.UniversalKind{})
	noneID := ctx.FreshConstructorID()
	someID := ctx.FreshConstructorID()
	ctx.RegisterVariant(b.Option, &typesystem.VariantDef{
		Name:   config.OptionTypeName,
		Params: []typesystem.BoundID{optParam},
		Ctors: []typesystem.CtorEntry{
			{Name: config.NoneCtorName, ID: noneID},
			{Name: config.SomeCtorName, ID: someID, Params: []typesystem.Type{typesystem.BoundRef{ID: optParam}}},
		},
	})
	env = env.AddType(config.OptionTypeName, symbols.TypeEntry{ID: b.Option, Arity: 1})
	b.OptionNone = symbols.CtorEntry{Variant: b.Option, Ctor: noneID}
	b.OptionSome = symbols.CtorEntry{
		Variant:    b.Option,
		Ctor:       someID,
		ParamTypes: []typesystem.Type{typesystem.BoundRef{ID: optParam}},
	}
	env = env.AddCtor(config.NoneCtorName, b.OptionNone)
	env = env.AddCtor(config.SomeCtorName, b.OptionSome)

	// Process primitives. The effect parameter is the receive type of the
	// calling process; spawn's argument runs with its own.
	tau := ctx.FreshBoundID(typesystem.UniversalKind{})
	sigma := ctx.FreshBoundID(typesystem.UniversalKind{})
	tauRef := typesystem.BoundRef{ID: tau}
	sigmaRef := typesystem.BoundRef{ID: sigma}

	// self : fun() -[t]-> pid<t>
	env = addPrimitive(env, "self", 0, typesystem.EffFunc{
		Dom: typesystem.NewDomain(),
		Eff: &typesystem.Effect{Receive: tauRef},
		Cod: typesystem.Pid{Receive: tauRef},
	})

	// spawn : fun(fun() -[s]-> unit) -[t]-> pid<s>
	env = addPrimitive(env, "spawn", 1, typesystem.EffFunc{
		Dom: typesystem.NewDomain(typesystem.EffFunc{
			Dom: typesystem.NewDomain(),
			Eff: &typesystem.Effect{Receive: sigmaRef},
			Cod: typesystem.Base{Tag: typesystem.UnitType},
		}),
		Eff: &typesystem.Effect{Receive: tauRef},
		Cod: typesystem.Pid{Receive: sigmaRef},
	})

	// send : fun(pid<s>, s) -[t]-> unit
	env = addPrimitive(env, "send", 2, typesystem.EffFunc{
		Dom: typesystem.NewDomain(typesystem.Pid{Receive: sigmaRef}, sigmaRef),
		Eff: &typesystem.Effect{Receive: tauRef},
		Cod: typesystem.Base{Tag: typesystem.UnitType},
	})

	// print_debug : fun('a) -> unit
	env = addPrimitive(env, "print_debug", 1, typesystem.Func{
		Dom: typesystem.NewDomain(sigmaRef),
		Cod: typesystem.Base{Tag: typesystem.UnitType},
	})

	// format : fun(format<'a>, 'a) -> list<char>
	env = addPrimitive(env, "format", 2, typesystem.Func{
		Dom: typesystem.NewDomain(typesystem.Format{Arg: sigmaRef}, sigmaRef),
		Cod: b.ListOf(typesystem.Base{Tag: typesystem.CharType}),
	})

	return env, b
}

func addPrimitive(env symbols.Env, name string, arity int, poly typesystem.Type) symbols.Env {
	gname := ir.Global{Space: config.PrimitiveSpace, Name: name, Arity: arity}
	entry := symbols.NewValEntry(poly, gname, token.Dummy())
	entry.MarkUsed()
	return env.AddValue(name, entry)
}
