package resolver

import "github.com/barracuda-lang/barracuda/lang/types"

// builtinSig is the fixed signature of a built-in math-library function
// (spec section 4.8's math-library opcodes). Built-ins are not registered
// in the function Registry: they share the call syntax but are recognised
// by name before registry lookup and lowered directly to opcodes by the
// code generator (spec section 4.6.4, "built-in functions share the same
// table with a marker").
type builtinSig struct {
	Args   []types.Primitive
	Return types.Primitive
}

func unary() []types.Primitive  { return []types.Primitive{types.F64} }
func binary() []types.Primitive { return []types.Primitive{types.F64, types.F64} }

var builtinSigs = map[string]builtinSig{
	"sin":   {Args: unary(), Return: types.F64},
	"cos":   {Args: unary(), Return: types.F64},
	"tan":   {Args: unary(), Return: types.F64},
	"asin":  {Args: unary(), Return: types.F64},
	"acos":  {Args: unary(), Return: types.F64},
	"atan":  {Args: unary(), Return: types.F64},
	"atan2": {Args: binary(), Return: types.F64},
	"sinh":  {Args: unary(), Return: types.F64},
	"cosh":  {Args: unary(), Return: types.F64},
	"tanh":  {Args: unary(), Return: types.F64},
	"exp":   {Args: unary(), Return: types.F64},
	"log":   {Args: unary(), Return: types.F64},
	"log2":  {Args: unary(), Return: types.F64},
	"log10": {Args: unary(), Return: types.F64},
	"sqrt":  {Args: unary(), Return: types.F64},
	"cbrt":  {Args: unary(), Return: types.F64},
	"pow":   {Args: binary(), Return: types.F64},
	"floor": {Args: unary(), Return: types.F64},
	"ceil":  {Args: unary(), Return: types.F64},
	"round": {Args: unary(), Return: types.F64},
	"trunc": {Args: unary(), Return: types.F64},
	"abs":   {Args: unary(), Return: types.F64},
	"fmod":  {Args: binary(), Return: types.F64},
	"min":   {Args: binary(), Return: types.F64},
	"max":   {Args: binary(), Return: types.F64},
	"scalbn":  {Args: binary(), Return: types.F64},
	"scalbln": {Args: binary(), Return: types.F64},
}
