// Package diagnostics defines the typed errors and warnings of the
// elaborator. Every internal layer returns these; only the CLI stringifies
// them for the user. The first error aborts elaboration, so payloads are
// rendered eagerly at construction time.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Error is a typed elaboration error with a source location.
type Error interface {
	error
	Code() string
	Span() token.Range
}

type Loc struct {
	Range token.Range
}

func (l Loc) Span() token.Range { return l.Range }

// At builds the embedded location of an error or warning.
func At(r token.Range) Loc { return Loc{Range: r} }

// Lookup errors.

type UnboundVariable struct {
	Loc
	Name string
}

func (e *UnboundVariable) Code() string  { return "unbound-variable" }
func (e *UnboundVariable) Error() string { return fmt.Sprintf("unbound variable '%s'", e.Name) }

type UnboundModuleName struct {
	Loc
	Name string
}

func (e *UnboundModuleName) Code() string  { return "unbound-module-name" }
func (e *UnboundModuleName) Error() string { return fmt.Sprintf("unbound module name '%s'", e.Name) }

type UnboundSignatureName struct {
	Loc
	Name string
}

func (e *UnboundSignatureName) Code() string { return "unbound-signature-name" }
func (e *UnboundSignatureName) Error() string {
	return fmt.Sprintf("unbound signature name '%s'", e.Name)
}

type UnboundTypeParameter struct {
	Loc
	Name string
}

func (e *UnboundTypeParameter) Code() string { return "unbound-type-parameter" }
func (e *UnboundTypeParameter) Error() string {
	return fmt.Sprintf("unbound type parameter '%s", e.Name)
}

type UnboundRowParameter struct {
	Loc
	Name string
}

func (e *UnboundRowParameter) Code() string { return "unbound-row-parameter" }
func (e *UnboundRowParameter) Error() string {
	return fmt.Sprintf("unbound row parameter ?$%s", e.Name)
}

type UndefinedConstructor struct {
	Loc
	Name string
}

func (e *UndefinedConstructor) Code() string { return "undefined-constructor" }
func (e *UndefinedConstructor) Error() string {
	return fmt.Sprintf("undefined constructor '%s'", e.Name)
}

type UndefinedTypeName struct {
	Loc
	Name string
}

func (e *UndefinedTypeName) Code() string  { return "undefined-type-name" }
func (e *UndefinedTypeName) Error() string { return fmt.Sprintf("undefined type name '%s'", e.Name) }

type UndefinedKindName struct {
	Loc
	Name string
}

func (e *UndefinedKindName) Code() string  { return "undefined-kind-name" }
func (e *UndefinedKindName) Error() string { return fmt.Sprintf("undefined kind name '%s'", e.Name) }

// Shape errors.

type NotOfStructureType struct {
	Loc
	Name string
}

func (e *NotOfStructureType) Code() string { return "not-of-structure-type" }
func (e *NotOfStructureType) Error() string {
	return fmt.Sprintf("module '%s' is not a structure", e.Name)
}

type NotOfFunctorType struct {
	Loc
	Name string
}

func (e *NotOfFunctorType) Code() string  { return "not-of-functor-type" }
func (e *NotOfFunctorType) Error() string { return fmt.Sprintf("module '%s' is not a functor", e.Name) }

type NotAStructureSignature struct {
	Loc
}

func (e *NotAStructureSignature) Code() string  { return "not-a-structure-signature" }
func (e *NotAStructureSignature) Error() string { return "this signature is not a structure signature" }

type RootModuleMustBeStructure struct {
	Loc
}

func (e *RootModuleMustBeStructure) Code() string  { return "root-module-must-be-structure" }
func (e *RootModuleMustBeStructure) Error() string { return "the root module must be a structure" }

type SupportOnlyFirstOrderFunctor struct {
	Loc
}

func (e *SupportOnlyFirstOrderFunctor) Code() string { return "support-only-first-order-functor" }
func (e *SupportOnlyFirstOrderFunctor) Error() string {
	return "only first-order functors are supported"
}

type CannotRestrictTransparentType struct {
	Loc
	Name string
}

func (e *CannotRestrictTransparentType) Code() string { return "cannot-restrict-transparent-type" }
func (e *CannotRestrictTransparentType) Error() string {
	return fmt.Sprintf("cannot restrict transparent type '%s' with 'with type'", e.Name)
}

type InvalidIdentifier struct {
	Loc
	Name string
}

func (e *InvalidIdentifier) Code() string  { return "invalid-identifier" }
func (e *InvalidIdentifier) Error() string { return fmt.Sprintf("invalid identifier '%s'", e.Name) }

// Arity and label errors.

type InvalidNumberOfTypeArguments struct {
	Loc
	Name     string
	Expected int
	Got      int
}

func (e *InvalidNumberOfTypeArguments) Code() string { return "invalid-number-of-type-arguments" }
func (e *InvalidNumberOfTypeArguments) Error() string {
	return fmt.Sprintf("type '%s' expects %d argument(s), got %d", e.Name, e.Expected, e.Got)
}

type InvalidNumberOfConstructorArguments struct {
	Loc
	Name     string
	Expected int
	Got      int
}

func (e *InvalidNumberOfConstructorArguments) Code() string {
	return "invalid-number-of-constructor-arguments"
}
func (e *InvalidNumberOfConstructorArguments) Error() string {
	return fmt.Sprintf("constructor '%s' expects %d argument(s), got %d", e.Name, e.Expected, e.Got)
}

type BadArityOfOrderedArguments struct {
	Loc
	Expected int
	Got      int
}

func (e *BadArityOfOrderedArguments) Code() string { return "bad-arity-of-ordered-arguments" }
func (e *BadArityOfOrderedArguments) Error() string {
	return fmt.Sprintf("expected %d ordered argument(s), got %d", e.Expected, e.Got)
}

type UnexpectedMandatoryLabel struct {
	Loc
	Label string
}

func (e *UnexpectedMandatoryLabel) Code() string { return "unexpected-mandatory-label" }
func (e *UnexpectedMandatoryLabel) Error() string {
	return fmt.Sprintf("unexpected mandatory label -%s", e.Label)
}

type MissingMandatoryLabel struct {
	Loc
	Label string
}

func (e *MissingMandatoryLabel) Code() string { return "missing-mandatory-label" }
func (e *MissingMandatoryLabel) Error() string {
	return fmt.Sprintf("missing mandatory label -%s", e.Label)
}

type UnexpectedOptionalLabel struct {
	Loc
	Label string
}

func (e *UnexpectedOptionalLabel) Code() string { return "unexpected-optional-label" }
func (e *UnexpectedOptionalLabel) Error() string {
	return fmt.Sprintf("unexpected optional label ?%s", e.Label)
}

type DuplicatedLabel struct {
	Loc
	Label string
}

func (e *DuplicatedLabel) Code() string  { return "duplicated-label" }
func (e *DuplicatedLabel) Error() string { return fmt.Sprintf("duplicated label %s", e.Label) }

type TypeParameterBoundMoreThanOnce struct {
	Loc
	Name string
}

func (e *TypeParameterBoundMoreThanOnce) Code() string { return "type-parameter-bound-more-than-once" }
func (e *TypeParameterBoundMoreThanOnce) Error() string {
	return fmt.Sprintf("type parameter '%s bound more than once", e.Name)
}

type RowParameterBoundMoreThanOnce struct {
	Loc
	Name string
}

func (e *RowParameterBoundMoreThanOnce) Code() string { return "row-parameter-bound-more-than-once" }
func (e *RowParameterBoundMoreThanOnce) Error() string {
	return fmt.Sprintf("row parameter ?$%s bound more than once", e.Name)
}

type BoundMoreThanOnceInPattern struct {
	Loc
	Name string
}

func (e *BoundMoreThanOnceInPattern) Code() string { return "bound-more-than-once-in-pattern" }
func (e *BoundMoreThanOnceInPattern) Error() string {
	return fmt.Sprintf("'%s' is bound more than once in a pattern", e.Name)
}

type InvalidByte struct {
	Loc
	Value int
}

func (e *InvalidByte) Code() string { return "invalid-byte" }
func (e *InvalidByte) Error() string {
	return fmt.Sprintf("invalid byte %d in binary literal", e.Value)
}

// Type-checking errors.

type ContradictionError struct {
	Loc
	Actual      typesystem.Type
	Expected    typesystem.Type
	ActualStr   string
	ExpectedStr string
}

// NewContradiction renders both sides with the given context.
func NewContradiction(ctx *typesystem.Context, r token.Range, actual, expected typesystem.Type) *ContradictionError {
	return &ContradictionError{
		Loc:         At(r),
		Actual:      actual,
		Expected:    expected,
		ActualStr:   ctx.TypeString(actual),
		ExpectedStr: ctx.TypeString(expected),
	}
}

func (e *ContradictionError) Code() string { return "contradiction" }
func (e *ContradictionError) Error() string {
	return fmt.Sprintf("this expression has type %s but is expected of type %s", e.ActualStr, e.ExpectedStr)
}

type InclusionError struct {
	Loc
	Var         typesystem.TypeVarID
	Actual      typesystem.Type
	Expected    typesystem.Type
	ActualStr   string
	ExpectedStr string
}

func NewInclusion(ctx *typesystem.Context, r token.Range, fid typesystem.TypeVarID, actual, expected typesystem.Type) *InclusionError {
	return &InclusionError{
		Loc:         At(r),
		Var:         fid,
		Actual:      actual,
		Expected:    expected,
		ActualStr:   ctx.TypeString(actual),
		ExpectedStr: ctx.TypeString(expected),
	}
}

func (e *InclusionError) Code() string { return "inclusion" }
func (e *InclusionError) Error() string {
	return fmt.Sprintf("a record constraint failed between %s and %s", e.ActualStr, e.ExpectedStr)
}

type InclusionRowError struct {
	Loc
	RowVar      typesystem.RowVarID
	Actual      typesystem.Type
	Expected    typesystem.Type
	ActualStr   string
	ExpectedStr string
}

func NewInclusionRow(ctx *typesystem.Context, r token.Range, frid typesystem.RowVarID, actual, expected typesystem.Type) *InclusionRowError {
	return &InclusionRowError{
		Loc:         At(r),
		RowVar:      frid,
		Actual:      actual,
		Expected:    expected,
		ActualStr:   ctx.TypeString(actual),
		ExpectedStr: ctx.TypeString(expected),
	}
}

func (e *InclusionRowError) Code() string { return "inclusion-row" }
func (e *InclusionRowError) Error() string {
	return fmt.Sprintf("an optional-row constraint failed between %s and %s", e.ActualStr, e.ExpectedStr)
}

type CyclicTypeParameter struct {
	Loc
}

func (e *CyclicTypeParameter) Code() string { return "cyclic-type-parameter" }
func (e *CyclicTypeParameter) Error() string {
	return "cyclic dependency among generalized type parameters"
}

type CyclicSynonymTypeDefinition struct {
	Loc
	Cycle []typesystem.SynonymID
	Names []string
}

func NewCyclicSynonym(ctx *typesystem.Context, r token.Range, cycle []typesystem.SynonymID) *CyclicSynonymTypeDefinition {
	names := make([]string, len(cycle))
	for i, sid := range cycle {
		names[i] = ctx.Synonym(sid).Name
	}
	return &CyclicSynonymTypeDefinition{Loc: At(r), Cycle: cycle, Names: names}
}

func (e *CyclicSynonymTypeDefinition) Code() string { return "cyclic-synonym-type-definition" }
func (e *CyclicSynonymTypeDefinition) Error() string {
	return fmt.Sprintf("cyclic synonym definition: %s", strings.Join(e.Names, " -> "))
}

type KindContradiction struct {
	Loc
	Name string
}

func (e *KindContradiction) Code() string { return "kind-contradiction" }
func (e *KindContradiction) Error() string {
	return fmt.Sprintf("kind mismatch for '%s'", e.Name)
}

// Signature-matching errors.

type MissingRequiredValName struct {
	Loc
	Name string
}

func (e *MissingRequiredValName) Code() string { return "missing-required-val-name" }
func (e *MissingRequiredValName) Error() string {
	return fmt.Sprintf("the module does not provide value '%s' required by the signature", e.Name)
}

type MissingRequiredTypeName struct {
	Loc
	Name string
}

func (e *MissingRequiredTypeName) Code() string { return "missing-required-type-name" }
func (e *MissingRequiredTypeName) Error() string {
	return fmt.Sprintf("the module does not provide type '%s' required by the signature", e.Name)
}

type MissingRequiredModuleName struct {
	Loc
	Name string
}

func (e *MissingRequiredModuleName) Code() string { return "missing-required-module-name" }
func (e *MissingRequiredModuleName) Error() string {
	return fmt.Sprintf("the module does not provide module '%s' required by the signature", e.Name)
}

type MissingRequiredSignatureName struct {
	Loc
	Name string
}

func (e *MissingRequiredSignatureName) Code() string { return "missing-required-signature-name" }
func (e *MissingRequiredSignatureName) Error() string {
	return fmt.Sprintf("the module does not provide signature '%s' required by the signature", e.Name)
}

type NotASubtype struct {
	Loc
	Name        string
	ActualStr   string
	ExpectedStr string
}

func NewNotASubtype(ctx *typesystem.Context, r token.Range, name string, actual, expected typesystem.Type) *NotASubtype {
	return &NotASubtype{
		Loc:         At(r),
		Name:        name,
		ActualStr:   ctx.TypeString(actual),
		ExpectedStr: ctx.TypeString(expected),
	}
}

func (e *NotASubtype) Code() string { return "not-a-subtype" }
func (e *NotASubtype) Error() string {
	return fmt.Sprintf("value '%s' has type %s, which is not more general than %s", e.Name, e.ActualStr, e.ExpectedStr)
}

type NotASubtypeVariant struct {
	Loc
	Name string
}

func (e *NotASubtypeVariant) Code() string { return "not-a-subtype-variant" }
func (e *NotASubtypeVariant) Error() string {
	return fmt.Sprintf("variant type '%s' does not match the one required by the signature", e.Name)
}

type NotASubtypeSynonym struct {
	Loc
	Name string
}

func (e *NotASubtypeSynonym) Code() string { return "not-a-subtype-synonym" }
func (e *NotASubtypeSynonym) Error() string {
	return fmt.Sprintf("type synonym '%s' does not match the one required by the signature", e.Name)
}

type NotASubtypeTypeOpacity struct {
	Loc
	Name string
}

func (e *NotASubtypeTypeOpacity) Code() string { return "not-a-subtype-type-opacity" }
func (e *NotASubtypeTypeOpacity) Error() string {
	return fmt.Sprintf("type '%s' does not satisfy the opacity required by the signature", e.Name)
}

type PolymorphicContradiction struct {
	Loc
	Name string
}

func (e *PolymorphicContradiction) Code() string { return "polymorphic-contradiction" }
func (e *PolymorphicContradiction) Error() string {
	return fmt.Sprintf("polymorphic types for '%s' cannot be matched", e.Name)
}

type ConflictInSignature struct {
	Loc
	Name string
}

func (e *ConflictInSignature) Code() string { return "conflict-in-signature" }
func (e *ConflictInSignature) Error() string {
	return fmt.Sprintf("'%s' occurs more than once in a signature", e.Name)
}

type OpaqueIDExtrudesScopeViaType struct {
	Loc
	Name string
}

func (e *OpaqueIDExtrudesScopeViaType) Code() string { return "opaque-id-extrudes-scope-via-type" }
func (e *OpaqueIDExtrudesScopeViaType) Error() string {
	return fmt.Sprintf("abstract type '%s' escapes its scope", e.Name)
}

type OpaqueIDExtrudesScopeViaSignature struct {
	Loc
	Name string
}

func (e *OpaqueIDExtrudesScopeViaSignature) Code() string {
	return "opaque-id-extrudes-scope-via-signature"
}
func (e *OpaqueIDExtrudesScopeViaSignature) Error() string {
	return fmt.Sprintf("abstract type '%s' escapes its scope through a signature", e.Name)
}

type CannotFreezeNonGlobalName struct {
	Loc
	Name string
}

func (e *CannotFreezeNonGlobalName) Code() string { return "cannot-freeze-non-global-name" }
func (e *CannotFreezeNonGlobalName) Error() string {
	return fmt.Sprintf("cannot freeze '%s': only module-level names can be frozen", e.Name)
}
