// Package ast is the surface tree the parser hands to the elaborator.
// Every node carries its source range; the elaborator never re-reads
// source text.
package ast

import "github.com/sester-lang/sester/internal/token"

// Node is the base interface for all AST nodes.
type Node interface {
	Span() token.Range
}

// Ident is an identifier occurrence.
type Ident struct {
	Name  string
	Range token.Range
}

func (i Ident) Span() token.Range { return i.Range }

// TypeParam is a handwritten type parameter such as 'a, optionally with a
// kind annotation.
type TypeParam struct {
	Name  string
	Kind  *KindExpr
	Range token.Range
}

func (p TypeParam) Span() token.Range { return p.Range }

// RowParam is a handwritten row parameter such as ?$r with its label kind.
type RowParam struct {
	Name   string
	Labels []LabeledType
	Range  token.Range
}

func (p RowParam) Span() token.Range { return p.Range }

// LabeledType pairs a label with a type expression, used in record types,
// mandatory domains, and rows.
type LabeledType struct {
	Label string
	Type  TypeExpr
	Range token.Range
}

// Source is one parsed compilation unit: a name for the root module, an
// optional signature ascription, and the root bindings.
type Source struct {
	Name     Ident
	Sig      *SigExpr
	Bindings []Binding
	Range    token.Range
}

func (s *Source) Span() token.Range { return s.Range }
