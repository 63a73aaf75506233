// Package opcodes implements the Bitcoin Cash common instruction set:
// program state, the opcode dispatch table pkg/vm drives, and the push,
// stack, and cryptographic opcodes spec.md §4.4–§4.6 describe.
package opcodes

import (
	"github.com/bitcoinecho/scriptvm/pkg/chainparams"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
)

// ExternalState is the per-input, read-only transaction context a program
// state carries through one authentication program's three passes
// (spec.md §3). It is supplied by the caller (pkg/txmodel in this repo) and
// never mutated by the VM.
type ExternalState struct {
	BlockHeight uint32
	BlockTime   uint32
	Locktime    uint32
	Version     uint32

	TransactionOutpointsHash        [32]byte
	TransactionOutputsHash          [32]byte
	TransactionSequenceNumbersHash  [32]byte
	CorrespondingOutputHash         [32]byte

	OutpointTransactionHash [32]byte
	OutpointIndex           uint32
	OutpointValue           uint64
	SequenceNumber          uint32
}

// State is the concrete program state for the Bitcoin Cash instruction set:
// MinimumState (ip, script) + StackState (stack) + ErrorState (err) +
// CommonInternalState (lastCodeSeparator) + ExternalState, per spec.md §3.
type State struct {
	ip                int
	script            []byte
	stack             [][]byte
	err               error
	lastCodeSeparator int
	external          ExternalState

	Params   chainparams.Params
	Crypto   cryptoprovider.Provider
}

// New builds the initial state for one VM pass: ip 0, no error, no
// lastCodeSeparator, and the given script/stack/external context. The
// composer (pkg/composer) calls this once per unlocking/locking/redeem
// pass, per spec.md §4.7 and invariant 6 (the three passes share only the
// stack; ip/lastCodeSeparator/script reset).
func New(script []byte, stack [][]byte, external ExternalState, params chainparams.Params, crypto cryptoprovider.Provider) State {
	return State{
		ip:                0,
		script:            script,
		stack:             stack,
		lastCodeSeparator: -1,
		external:          external,
		Params:            params,
		Crypto:            crypto,
	}
}

// NewState is a convenience constructor for callers that don't need a
// custom crypto provider or external transaction context — most tests, and
// the demo CLI. Production composition (pkg/composer) uses New directly so
// it can thread through the real per-input ExternalState.
func NewState(script []byte, stack [][]byte, params chainparams.Params) State {
	return New(script, stack, ExternalState{}, params, cryptoprovider.Default())
}

func (s State) IP() int        { return s.ip }
func (s State) Script() []byte { return s.script }
func (s State) Error() error   { return s.err }

// Stack returns the live stack slice. Callers that need an independent copy
// should clone it themselves (see Clone for the VM's own copying contract).
func (s State) Stack() [][]byte { return s.stack }

// External returns the read-only per-input transaction context.
func (s State) External() ExternalState { return s.external }

// LastCodeSeparator returns the index set by the most recent
// OP_CODESEPARATOR, or -1 if none has executed in this pass.
func (s State) LastCodeSeparator() int { return s.lastCodeSeparator }

// WithError returns a copy of s with its error facet set. Once set, the
// instruction set's Continue predicate stops the dispatch loop (spec.md
// invariant 2 and §7).
func (s State) WithError(err error) State {
	s.err = err
	return s
}

// Clone produces a deep copy of s: mutating the clone's stack, script, or
// external hashes leaves the original byte-identical (spec.md invariant 5).
func Clone(s State) State {
	stack := make([][]byte, len(s.stack))
	for i, item := range s.stack {
		cp := make([]byte, len(item))
		copy(cp, item)
		stack[i] = cp
	}
	script := make([]byte, len(s.script))
	copy(script, s.script)

	clone := s
	clone.script = script
	clone.stack = stack
	return clone
}

// advance moves ip forward by n bytes, for opcodes (push data, PUSHDATA
// length prefixes) that consume more than the single opcode byte Before
// already accounted for.
func (s State) advance(n int) State {
	s.ip += n
	return s
}

// setCodeSeparator records ip as the start of the script slice future
// OP_CHECKSIG calls in this pass will sign, per spec.md §4.5.
func (s State) setCodeSeparator() State {
	s.lastCodeSeparator = s.ip
	return s
}

// scriptCode returns the portion of the script OP_CHECKSIG hashes: from the
// most recent OP_CODESEPARATOR (or the start of the script) to the end.
func (s State) scriptCode() []byte {
	if s.lastCodeSeparator <= 0 {
		return s.script
	}
	return s.script[s.lastCodeSeparator:]
}

// push appends a copy of data to the stack and returns the new state.
func (s State) push(data []byte) State {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.stack = append(s.stack, cp)
	return s
}

// pop removes and returns the top stack element. ok is false on an empty
// stack, in which case the caller is expected to set EmptyStack.
func (s State) pop() (State, []byte, bool) {
	if len(s.stack) == 0 {
		return s, nil, false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return s, top, true
}

// peek returns the top stack element without removing it.
func (s State) peek() ([]byte, bool) {
	if len(s.stack) == 0 {
		return nil, false
	}
	return s.stack[len(s.stack)-1], true
}
