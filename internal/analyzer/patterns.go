package analyzer

import (
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// PatternBinding is one name bound by a pattern.
type PatternBinding struct {
	Name  string
	Type  typesystem.Type
	Var   ir.Local
	Range token.Range
}

// BindingMap collects the names a pattern binds, in source order.
type BindingMap struct {
	order []PatternBinding
	index map[string]int
}

func newBindingMap() *BindingMap {
	return &BindingMap{index: map[string]int{}}
}

func (b *BindingMap) add(pb PatternBinding) diagnostics.Error {
	if _, ok := b.index[pb.Name]; ok {
		return &diagnostics.BoundMoreThanOnceInPattern{Loc: diagnostics.At(pb.Range), Name: pb.Name}
	}
	b.index[pb.Name] = len(b.order)
	b.order = append(b.order, pb)
	return nil
}

// Bindings returns the bound names in source order.
func (b *BindingMap) Bindings() []PatternBinding { return b.order }

// Extend binds every pattern name in the environment at its mono type.
func (b *BindingMap) Extend(env symbols.Env) symbols.Env {
	for _, pb := range b.order {
		env = env.AddValue(pb.Name, symbols.NewValEntry(pb.Type, pb.Var, pb.Range))
	}
	return env
}

// InferPattern types a pattern, producing its IR form and the map of names
// it binds.
func (c *Checker) InferPattern(pre Pre, pat ast.Pattern) (typesystem.Type, ir.Pattern, *BindingMap, diagnostics.Error) {
	bm := newBindingMap()
	ty, ip, err := c.inferPattern(pre, pat, bm)
	if err != nil {
		return nil, nil, nil, err
	}
	return ty, ip, bm, nil
}

func (c *Checker) inferPattern(pre Pre, pat ast.Pattern, bm *BindingMap) (typesystem.Type, ir.Pattern, diagnostics.Error) {
	switch pat := pat.(type) {
	case *ast.PWildcard:
		return c.ctx.FreshVar(pre.Level), ir.PWildcard{}, nil

	case *ast.PVar:
		local := c.freshLocal(pat.Name.Name)
		ty := c.ctx.FreshVar(pre.Level)
		if err := bm.add(PatternBinding{Name: pat.Name.Name, Type: ty, Var: local, Range: pat.Range}); err != nil {
			return nil, nil, err
		}
		return ty, ir.PVar{Var: local}, nil

	case *ast.PLiteral:
		ty, cst, err := c.constType(pre, pat.Const, pat.Range)
		if err != nil {
			return nil, nil, err
		}
		return ty, ir.PConst{Const: cst}, nil

	case *ast.PTuple:
		types := make([]typesystem.Type, len(pat.Elems))
		pats := make([]ir.Pattern, len(pat.Elems))
		for i, sub := range pat.Elems {
			ty, ip, err := c.inferPattern(pre, sub, bm)
			if err != nil {
				return nil, nil, err
			}
			types[i] = ty
			pats[i] = ip
		}
		return typesystem.Product{Types: types}, ir.PTuple{Elems: pats}, nil

	case *ast.PListNil:
		return c.builtin.ListOf(c.ctx.FreshVar(pre.Level)), ir.PListNil{}, nil

	case *ast.PListCons:
		headTy, headPat, err := c.inferPattern(pre, pat.Head, bm)
		if err != nil {
			return nil, nil, err
		}
		tailTy, tailPat, err := c.inferPattern(pre, pat.Tail, bm)
		if err != nil {
			return nil, nil, err
		}
		if uerr := c.unify(pat.Tail.Span(), tailTy, c.builtin.ListOf(headTy)); uerr != nil {
			return nil, nil, uerr
		}
		return tailTy, ir.PListCons{Head: headPat, Tail: tailPat}, nil

	case *ast.PCtor:
		entry, err := c.findCtor(pre, pat.Path, pat.Name)
		if err != nil {
			return nil, nil, err
		}
		if len(entry.ParamTypes) != len(pat.Args) {
			return nil, nil, &diagnostics.InvalidNumberOfConstructorArguments{
				Loc:      diagnostics.At(pat.Range),
				Name:     pat.Name.Name,
				Expected: len(entry.ParamTypes),
				Got:      len(pat.Args),
			}
		}
		dataTy, paramTys := c.instantiateCtor(pre, entry)
		pats := make([]ir.Pattern, len(pat.Args))
		for i, sub := range pat.Args {
			ty, ip, err := c.inferPattern(pre, sub, bm)
			if err != nil {
				return nil, nil, err
			}
			if uerr := c.unify(sub.Span(), ty, paramTys[i]); uerr != nil {
				return nil, nil, uerr
			}
			pats[i] = ip
		}
		return dataTy, ir.PConstructor{
			Variant: entry.Variant,
			Ctor:    entry.Ctor,
			Name:    pat.Name.Name,
			Args:    pats,
		}, nil
	}
	panic("analyzer: unknown pattern")
}

// findCtor resolves a constructor name, possibly through a module path.
func (c *Checker) findCtor(pre Pre, path []ast.Ident, name ast.Ident) (symbols.CtorEntry, diagnostics.Error) {
	if len(path) == 0 {
		entry, ok := pre.Env.FindCtor(name.Name)
		if !ok {
			return symbols.CtorEntry{}, &diagnostics.UndefinedConstructor{Loc: diagnostics.At(name.Range), Name: name.Name}
		}
		return entry, nil
	}
	rec, err := c.ResolveModulePath(pre, path)
	if err != nil {
		return symbols.CtorEntry{}, err
	}
	entry, ok := rec.FindCtor(name.Name)
	if !ok {
		return symbols.CtorEntry{}, &diagnostics.UndefinedConstructor{Loc: diagnostics.At(name.Range), Name: name.Name}
	}
	return entry, nil
}

// instantiateCtor freshens the owning variant's parameters and returns the
// constructed data type together with the parameter types at those fresh
// arguments.
func (c *Checker) instantiateCtor(pre Pre, entry symbols.CtorEntry) (typesystem.Type, []typesystem.Type) {
	def := c.ctx.Variant(entry.Variant)
	subst := typesystem.Subst{
		Types: make(map[typesystem.BoundID]typesystem.Type, len(def.Params)),
		Rows:  map[typesystem.BoundRowID]typesystem.Row{},
	}
	args := make([]typesystem.Type, len(def.Params))
	for i, p := range def.Params {
		v := c.ctx.FreshVar(pre.Level)
		subst.Types[p] = v
		args[i] = v
	}
	paramTys := make([]typesystem.Type, len(entry.ParamTypes))
	for i, p := range entry.ParamTypes {
		paramTys[i] = subst.Apply(p)
	}
	return typesystem.Data{ID: entry.Variant, Args: args}, paramTys
}
