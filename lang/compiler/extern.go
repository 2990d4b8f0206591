package compiler

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"

	"github.com/barracuda-lang/barracuda/lang/resolver"
	"github.com/barracuda-lang/barracuda/lang/types"
	"gopkg.in/yaml.v3"
)

// externSpecPattern matches the CLI/library extern specification grammar
// (spec section 6): identifier(*)*:address(:datatype)?(=value)?
var externSpecPattern = regexp.MustCompile(
	`^([A-Za-z_][A-Za-z0-9_]*)(\*+)?:(\d+)(?::([A-Za-z0-9]+))?(?:=(-?[0-9.eE+-]+))?$`)

// defaultExternPrimitive is used when a --env entry omits its datatype
// field; the host binding ordinarily supplies one, but the CLI surface has
// no host connection to consult, so it falls back to the same default the
// resolver gives an untyped numeric literal.
const defaultExternPrimitive = types.F64

// ParseExternSpec parses one `identifier(*)*:address(:datatype)?(=value)?`
// entry (spec section 6) into its name and host binding.
func ParseExternSpec(spec string) (name string, binding resolver.ExternBinding, err error) {
	m := externSpecPattern.FindStringSubmatch(spec)
	if m == nil {
		return "", resolver.ExternBinding{}, fmt.Errorf("compiler: invalid extern spec %q", spec)
	}
	name = m[1]
	addr, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return "", resolver.ExternBinding{}, fmt.Errorf("compiler: invalid extern address in %q: %w", spec, err)
	}

	prim := defaultExternPrimitive
	if m[4] != "" {
		p, ok := types.ParsePrimitive(m[4])
		if !ok {
			return "", resolver.ExternBinding{}, fmt.Errorf("compiler: unknown extern datatype %q in %q", m[4], spec)
		}
		prim = p
	}

	b := resolver.ExternBinding{
		Address:      addr,
		PointerDepth: len(m[2]),
		Primitive:    prim,
	}
	if m[5] != "" {
		bits, err := parseExternValue(m[5], prim)
		if err != nil {
			return "", resolver.ExternBinding{}, fmt.Errorf("compiler: invalid extern value in %q: %w", spec, err)
		}
		b.HasValue = true
		b.Value = bits
	}
	return name, b, nil
}

func parseExternValue(raw string, prim types.Primitive) (uint64, error) {
	if prim == types.Bool {
		switch raw {
		case "0", "false":
			return 0, nil
		case "1", "true":
			return 1, nil
		}
	}
	if prim.IsInteger() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint64(n), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return math.Float64bits(f), nil
}

// ParseExternSpecs parses a sequence of repeated --env flag values into a
// name-keyed extern binding table, as consumed by resolver.Analyze.
func ParseExternSpecs(specs []string) (map[string]resolver.ExternBinding, error) {
	out := make(map[string]resolver.ExternBinding, len(specs))
	for _, s := range specs {
		name, b, err := ParseExternSpec(s)
		if err != nil {
			return nil, err
		}
		out[name] = b
	}
	return out, nil
}

// externFileEntry mirrors one YAML mapping entry of an --env-file manifest:
// an identifier to the same fields ParseExternSpec extracts from a single
// CLI token, expressed as structured YAML instead.
type externFileEntry struct {
	Address      uint64  `yaml:"address"`
	PointerDepth int     `yaml:"pointer_depth"`
	Datatype     string  `yaml:"datatype"`
	Value        *string `yaml:"value"`
}

// ParseExternFile parses an --env-file manifest (spec section 6's
// "library input" form): a YAML mapping of extern name to binding.
func ParseExternFile(path string) (map[string]resolver.ExternBinding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compiler: reading env file: %w", err)
	}

	var raw map[string]externFileEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("compiler: parsing env file %s: %w", path, err)
	}

	out := make(map[string]resolver.ExternBinding, len(raw))
	for name, e := range raw {
		prim := defaultExternPrimitive
		if e.Datatype != "" {
			p, ok := types.ParsePrimitive(e.Datatype)
			if !ok {
				return nil, fmt.Errorf("compiler: unknown extern datatype %q for %q in %s", e.Datatype, name, path)
			}
			prim = p
		}
		b := resolver.ExternBinding{
			Address:      e.Address,
			PointerDepth: e.PointerDepth,
			Primitive:    prim,
		}
		if e.Value != nil {
			bits, err := parseExternValue(*e.Value, prim)
			if err != nil {
				return nil, fmt.Errorf("compiler: invalid extern value for %q in %s: %w", name, path, err)
			}
			b.HasValue = true
			b.Value = bits
		}
		out[name] = b
	}
	return out, nil
}
