package program

import (
	"fmt"
	"hash/fnv"

	"github.com/shaderforge/shaderc/arena"
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// ProgramConstants maps a global-const parameter to its compile-time
// value, keyed by parameter pointer identity.
type ProgramConstants map[*ast.DataParameter]value.DataValue

// Instance is a (Program*, ProgramConstants) pair with a stable,
// content-addressed key.
type Instance struct {
	Program   *Program
	Constants ProgramConstants
	key       uint64
}

// ProgramName implements types.ProgramIdentity by delegating to the
// instance's program: DataType(program) identifies the program, not any
// one instance of it.
func (i *Instance) ProgramName() string { return i.Program.ProgramName() }

// IsBasedOnProgram delegates to the instance's program.
func (i *Instance) IsBasedOnProgram(other types.ProgramIdentity) bool {
	return i.Program.IsBasedOnProgram(other)
}

// Key returns i's stable content-addressed identity.
func (i *Instance) Key() uint64 { return i.key }

// InstanceLibrary interns ProgramInstances by content-addressed key.
type InstanceLibrary struct {
	byKey     map[uint64]*Instance
	instances *arena.Arena[Instance]
}

// NewInstanceLibrary returns an empty instance library.
func NewInstanceLibrary() *InstanceLibrary {
	return &InstanceLibrary{
		byKey:     make(map[uint64]*Instance),
		instances: arena.New[Instance](4),
	}
}

// Release drops every interned instance along with the interning table.
func (l *InstanceLibrary) Release() {
	l.instances.Reset()
	l.byKey = make(map[uint64]*Instance)
}

// GetOrCreate interns (p, constants). Coercing each constant to its
// parameter's declared type is the caller's responsibility (the resolver
// does this before calling in); this
// function only reports an error if a parameter named in constants is not
// actually a global-const parameter of p.
func (l *InstanceLibrary) GetOrCreate(p *Program, constants ProgramConstants, loc diag.Location, errs diag.IErrorReporter) (*Instance, bool) {
	for param := range constants {
		if param.Scope != ast.ScopeGlobalConst {
			errs.ReportError(loc, "program instance constant for "+param.Name+" is not a global-const parameter")
			return nil, false
		}
	}
	key := combineKey(p.Key(), hashConstants(constants))
	if existing, ok := l.byKey[key]; ok {
		return existing, true
	}
	inst := l.instances.AllocValue(Instance{Program: p, Constants: constants, key: key})
	l.byKey[key] = inst
	return inst, true
}

func combineKey(programKey, constantsHash uint64) uint64 {
	const prime = 1099511628211
	return (programKey * prime) ^ constantsHash
}

// hashConstants is order-independent (Go map iteration order is not
// stable), so per-entry hashes are XOR-combined rather than fed through a
// single running hash.
func hashConstants(c ProgramConstants) uint64 {
	var acc uint64
	for param, v := range c {
		h := fnv.New64a()
		fmt.Fprintf(h, "%p", param)
		for _, comp := range v.Components {
			h.Write([]byte{byte(comp.Tag)})
			writeUint64(h, comp.Uint64)
			writeUint64(h, uint64(comp.Int32))
			writeUint64(h, uint64(comp.Uint32))
			h.Write([]byte(comp.Name))
		}
		acc ^= h.Sum64()
	}
	return acc
}

func writeUint64(h fnvHasher, v uint64) {
	h.Write([]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	})
}

// fnvHasher is the subset of hash.Hash64 writeUint64 needs.
type fnvHasher interface {
	Write(p []byte) (int, error)
}
