// Package demovm is a minimal instruction set — five opcodes over a stack
// of integers — that exists purely to demonstrate pkg/vm's runtime is
// instruction-set agnostic: the same Before/Clone/Continue/Step/Evaluate/
// Debug plumbing that drives the Bitcoin Cash opcode set in pkg/opcodes
// drives this toy VM unchanged, per spec.md §8.
package demovm

import (
	"fmt"

	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
)

const (
	OpZero         byte = 0x00
	OpIncrement    byte = 0x01
	OpDecrement    byte = 0x02
	OpAdd          byte = 0x03
	OpCodeSeparator byte = 0xab
)

// State is the demo VM's program state: ip/script/error (the vm.State
// minimum) plus a stack of ints and the last OP_CODESEP index, mirroring
// the shape of opcodes.State without any of its crypto or transaction
// context facets.
type State struct {
	ip                int
	script            []byte
	stack             []int
	err               error
	lastCodeSeparator int
}

func New(script []byte) State {
	return State{script: script, lastCodeSeparator: -1}
}

func (s State) IP() int        { return s.ip }
func (s State) Script() []byte { return s.script }
func (s State) Error() error   { return s.err }
func (s State) Stack() []int   { return append([]int{}, s.stack...) }

func clone(s State) State {
	script := make([]byte, len(s.script))
	copy(script, s.script)
	stack := make([]int, len(s.stack))
	copy(stack, s.stack)
	s.script = script
	s.stack = stack
	return s
}

// InstructionSet implements vm.InstructionSet[State].
type InstructionSet struct{}

func (InstructionSet) Before(s State) State {
	s.ip++
	return s
}

func (InstructionSet) Clone(s State) State { return clone(s) }

func (InstructionSet) Continue(s State) bool {
	return s.err == nil && s.ip < len(s.script)
}

func (InstructionSet) Undefined() vm.Operator[State] {
	return vm.Operator[State]{
		Asm:         vm.Static[State]("OP_UNKNOWN"),
		Description: vm.Static[State]("unrecognized opcode"),
		Operation: func(s State) State {
			s.err = vmerrors.New(vmerrors.UnknownOpcode, "")
			return s
		},
	}
}

func (InstructionSet) Operator(opcode byte) (vm.Operator[State], bool) {
	switch opcode {
	case OpZero:
		return vm.Operator[State]{
			Asm:         vm.Static[State]("OP_0"),
			Description: vm.Static[State]("push 0"),
			Operation: func(s State) State {
				s.stack = append(s.stack, 0)
				return s
			},
		}, true
	case OpIncrement:
		return vm.Operator[State]{
			Asm:         vm.Static[State]("OP_INC"),
			Description: func(s State) string { return fmt.Sprintf("top is now %d", top(s)) },
			Operation: func(s State) State {
				return unary(s, func(v int) int { return v + 1 })
			},
		}, true
	case OpDecrement:
		return vm.Operator[State]{
			Asm:         vm.Static[State]("OP_DEC"),
			Description: func(s State) string { return fmt.Sprintf("top is now %d", top(s)) },
			Operation: func(s State) State {
				return unary(s, func(v int) int { return v - 1 })
			},
		}, true
	case OpAdd:
		return vm.Operator[State]{
			Asm:         vm.Static[State]("OP_ADD"),
			Description: func(s State) string { return fmt.Sprintf("top is now %d", top(s)) },
			Operation: func(s State) State {
				if len(s.stack) < 2 {
					s.err = vmerrors.New(vmerrors.EmptyStack, "OP_ADD requires two stack items")
					return s
				}
				b := s.stack[len(s.stack)-1]
				a := s.stack[len(s.stack)-2]
				s.stack = append(s.stack[:len(s.stack)-2], a+b)
				return s
			},
		}, true
	case OpCodeSeparator:
		return vm.Operator[State]{
			Asm:         vm.Static[State]("OP_CODESEP"),
			Description: vm.Static[State]("mark code separator"),
			Operation: func(s State) State {
				s.lastCodeSeparator = s.ip
				return s
			},
		}, true
	}
	return vm.Operator[State]{}, false
}

func unary(s State, f func(int) int) State {
	if len(s.stack) < 1 {
		s.err = vmerrors.New(vmerrors.EmptyStack, "requires one stack item")
		return s
	}
	s.stack[len(s.stack)-1] = f(s.stack[len(s.stack)-1])
	return s
}

func top(s State) int {
	if len(s.stack) == 0 {
		return 0
	}
	return s.stack[len(s.stack)-1]
}
