package opcodes

import (
	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
)

// InstructionSet is the Bitcoin Cash common instruction set, implementing
// vm.InstructionSet[State]. Dispatch is a fixed 256-entry array built once
// in New, per spec.md §9's design note — no per-step map lookups or opcode
// range comparisons.
type InstructionSet struct {
	table     [256]vm.Operator[State]
	present   [256]bool
	undefined vm.Operator[State]
}

// New builds the dispatch table: the constant data push family
// (OP_DATA_1..OP_DATA_75), the variable-length push family (PUSHDATA1/2/4),
// the small-number push family (OP_1NEGATE, OP_0, OP_1..OP_16), and the
// remaining common opcodes spec.md §4.5 names. maxElementSize bounds every
// push opcode (PUSHDATA1/2/4 and, implicitly, the 75-byte-capped OP_DATA_n
// family); callers building a State should pass the same Params.MaxScriptElementSize.
func New(maxElementSize int) InstructionSet {
	var set InstructionSet

	register := func(opcode byte, op vm.Operator[State]) {
		set.table[opcode] = op
		set.present[opcode] = true
	}

	for length := 1; length <= int(OP_DATA_75); length++ {
		register(byte(length), constantDataPush(length))
	}

	register(OP_PUSHDATA1, variablePush("OP_PUSHDATA1", 1, maxElementSize))
	register(OP_PUSHDATA2, variablePush("OP_PUSHDATA2", 2, maxElementSize))
	register(OP_PUSHDATA4, variablePush("OP_PUSHDATA4", 4, maxElementSize))

	register(OP_0, smallNumberPush(0))
	register(OP_1NEGATE, smallNumberPush(-1))
	for n := 1; n <= 16; n++ {
		register(OP_1+byte(n-1), smallNumberPush(n))
	}

	register(OP_VERIFY, opVerify)
	register(OP_RETURN, opReturn)
	register(OP_DUP, opDup)
	register(OP_EQUAL, opEqual)
	register(OP_EQUALVERIFY, opEqualVerify)
	register(OP_HASH160, opHash160)
	register(OP_CODESEPARATOR, opCodeSeparator)
	register(OP_CHECKSIG, opCheckSig)

	set.undefined = vm.Operator[State]{
		Asm:         vm.Static[State]("OP_UNKNOWN"),
		Description: vm.Static[State]("unrecognized opcode"),
		Operation: func(s State) State {
			return s.WithError(vmerrors.New(vmerrors.UnknownOpcode, "no operator registered for this opcode byte"))
		},
	}

	return set
}

func (set InstructionSet) Before(s State) State {
	return s.advance(1)
}

func (set InstructionSet) Clone(s State) State {
	return Clone(s)
}

func (set InstructionSet) Continue(s State) bool {
	return s.Error() == nil && s.IP() < len(s.Script())
}

func (set InstructionSet) Undefined() vm.Operator[State] {
	return set.undefined
}

func (set InstructionSet) Operator(opcode byte) (vm.Operator[State], bool) {
	if !set.present[opcode] {
		return vm.Operator[State]{}, false
	}
	return set.table[opcode], true
}
