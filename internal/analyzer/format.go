package analyzer

import (
	"strings"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// constType types a literal and produces its IR payload. Binary literals
// are range-checked here; format strings are split into segments and their
// hole types collected.
func (c *Checker) constType(pre Pre, cst ast.Const, rng token.Range) (typesystem.Type, ir.Const, diagnostics.Error) {
	switch cst := cst.(type) {
	case ast.UnitConst:
		return typesystem.Base{Tag: typesystem.UnitType}, ir.UnitConst{}, nil
	case ast.BoolConst:
		return typesystem.Base{Tag: typesystem.BoolType}, ir.BoolConst{Value: cst.Value}, nil
	case ast.IntConst:
		return typesystem.Base{Tag: typesystem.IntType}, ir.IntConst{Value: cst.Value}, nil
	case ast.FloatConst:
		return typesystem.Base{Tag: typesystem.FloatType}, ir.FloatConst{Value: cst.Value}, nil
	case ast.CharConst:
		return typesystem.Base{Tag: typesystem.CharType}, ir.CharConst{Value: cst.Value}, nil
	case ast.BinaryConst:
		bytes := make([]byte, len(cst.Values))
		for i, v := range cst.Values {
			if v < 0 || v > 255 {
				return nil, nil, &diagnostics.InvalidByte{Loc: diagnostics.At(rng), Value: v}
			}
			bytes[i] = byte(v)
		}
		return typesystem.Base{Tag: typesystem.BinaryType}, ir.BinaryConst{Bytes: bytes}, nil
	case ast.FormatConst:
		return c.formatType(pre, cst.Raw)
	}
	panic("analyzer: unknown constant")
}

// formatType elaborates a format string. Holes are written ~c, ~f, ~e, ~g,
// ~s, ~p, ~w; ~~ is a literal tilde, anything else stays literal text. The
// format's argument type is the product of the hole types in order.
func (c *Checker) formatType(pre Pre, raw string) (typesystem.Type, ir.Const, diagnostics.Error) {
	var segments []ir.FormatSegment
	var holes []typesystem.Type
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, ir.FormatSegment{Literal: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '~' || i+1 >= len(runes) {
			lit.WriteRune(r)
			continue
		}
		code := runes[i+1]
		var holeTy typesystem.Type
		switch code {
		case '~':
			lit.WriteRune('~')
			i++
			continue
		case 'c':
			holeTy = typesystem.Base{Tag: typesystem.CharType}
		case 'f', 'e', 'g':
			holeTy = typesystem.Base{Tag: typesystem.FloatType}
		case 's':
			holeTy = c.builtin.ListOf(typesystem.Base{Tag: typesystem.CharType})
		case 'p', 'w':
			holeTy = c.ctx.FreshVar(pre.Level)
		default:
			lit.WriteRune(r)
			continue
		}
		flush()
		segments = append(segments, ir.FormatSegment{Hole: byte(code), IsHole: true})
		holes = append(holes, holeTy)
		i++
	}
	flush()

	ty := typesystem.Format{Arg: typesystem.HoleProduct(holes)}
	return ty, ir.FormatConst{Segments: segments}, nil
}
