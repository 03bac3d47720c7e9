package types

// Conversion is the scalar-base conversion a match requires.
type Conversion uint8

const (
	ConvMatches Conversion = iota
	ConvToBool
	ConvToInt
	ConvToUint
	ConvToFloat
	ConvNoMatch
)

// IsImplicit reports whether this conversion may be inserted without an
// explicit cast: only the toBool/toInt/toUint/toFloat conversions are
// implicit, and only when the shapes otherwise match.
func (c Conversion) IsImplicit() bool {
	return c == ConvMatches || c == ConvToBool || c == ConvToInt || c == ConvToUint || c == ConvToFloat
}

// Expansion describes a scalar being broadcast to fill a wider shape.
type Expansion struct {
	// TargetComponents is the width to expand a scalar operand to; zero
	// means no expansion is required.
	TargetComponents int
}

// MatchResult is the (conversion, expansion) pair MatchType returns.
type MatchResult struct {
	Conversion Conversion
	Expansion  Expansion
}

func (m MatchResult) Matches() bool { return m.Conversion != ConvNoMatch }

// conversionFor returns the scalar-base conversion between two base kinds,
// or ConvNoMatch if no numeric conversion exists between them.
func conversionFor(from, to BaseKind) Conversion {
	if from == to {
		return ConvMatches
	}
	numeric := func(k BaseKind) bool { return k == Bool || k == Int || k == Uint || k == Float }
	if !numeric(from) || !numeric(to) {
		return ConvNoMatch
	}
	switch to {
	case Bool:
		return ConvToBool
	case Int:
		return ConvToInt
	case Uint:
		return ConvToUint
	case Float:
		return ConvToFloat
	default:
		return ConvNoMatch
	}
}

// MatchType classifies how current can become required.
func MatchType(current, required DataType) MatchResult {
	if !current.IsValid() || !required.IsValid() {
		return MatchResult{Conversion: ConvNoMatch}
	}

	// Identical modulo flags.
	if current.Equal(required) {
		return MatchResult{Conversion: ConvMatches}
	}

	// Nominal subtyping for programs.
	if current.Base() == Program && required.Base() == Program {
		cp, rp := current.ProgramIdentity(), required.ProgramIdentity()
		if cp != nil && rp != nil && cp.IsBasedOnProgram(rp) {
			return MatchResult{Conversion: ConvMatches}
		}
		return MatchResult{Conversion: ConvNoMatch}
	}

	// Scalar-to-scalar of different base types.
	if current.IsScalar() && required.IsScalar() {
		conv := conversionFor(current.Base(), required.Base())
		return MatchResult{Conversion: conv}
	}

	// Equal-width numeric vectors of different base types.
	if current.IsVector() && required.IsVector() && current.ComponentCount() == required.ComponentCount() {
		conv := conversionFor(current.Base(), required.Base())
		return MatchResult{Conversion: conv}
	}

	// A scalar paired with a non-user-struct composite: (toX, expandToN).
	if current.IsScalar() && (required.IsVector() || required.IsMatrix()) {
		if comp, ok := required.Composite(); ok && comp.Hint == HintUserStruct {
			return MatchResult{Conversion: ConvNoMatch}
		}
		conv := conversionFor(current.Base(), required.Base())
		if conv == ConvNoMatch {
			return MatchResult{Conversion: ConvNoMatch}
		}
		return MatchResult{Conversion: conv, Expansion: Expansion{TargetComponents: required.ComponentCount()}}
	}

	return MatchResult{Conversion: ConvNoMatch}
}

// GetCastedType returns the type current would have after being explicitly
// cast to the base kind of target, preserving current's shape (component
// and row count) rather than target's.
func (l *Library) GetCastedType(current DataType, toBase BaseKind) DataType {
	if current.IsMatrix() {
		return l.MatrixType(toBase, current.ComponentCount(), current.RowCount())
	}
	return l.simpleCompositeType(toBase, current.ComponentCount())
}

// GetContractedType returns t narrowed to n components.
func (l *Library) GetContractedType(t DataType, n int) DataType {
	if t.IsMatrix() {
		return t
	}
	return l.simpleCompositeType(t.Base(), n)
}

// GetExpandedType returns t broadcast to n components, per the scalar
// expansion masks XX/XXX/XXXX.
func (l *Library) GetExpandedType(t DataType, n int) DataType {
	return l.simpleCompositeType(t.Base(), n)
}

// CanSwizzle reports whether a vector/scalar type of the given component
// count admits the given number of swizzle letters.
func CanSwizzle(sourceComponents, requestedComponents int) bool {
	return requestedComponents >= 1 && requestedComponents <= 4
}

// CanUseComponentMask reports whether a write-mask of n components is a
// valid l-value contraction of a sourceComponents-wide vector.
func CanUseComponentMask(sourceComponents, n int) bool {
	return n >= 1 && n <= sourceComponents
}
