package demovm_test

import (
	"testing"

	"github.com/bitcoinecho/scriptvm/pkg/demovm"
	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/stretchr/testify/require"
)

func TestDemoVMTrace(t *testing.T) {
	set := demovm.InstructionSet{}
	script := []byte{
		demovm.OpZero,
		demovm.OpIncrement,
		demovm.OpIncrement,
		demovm.OpIncrement,
		demovm.OpZero,
		demovm.OpIncrement,
		demovm.OpAdd,
		demovm.OpCodeSeparator,
	}
	state := demovm.New(script)

	steps := vm.Debug(set, state, "Begin demo evaluation.")
	require.Len(t, steps, 9) // initial banner + 8 opcodes

	require.Equal(t, []int{0}, steps[1].State.Stack())
	require.Equal(t, []int{1}, steps[2].State.Stack())
	require.Equal(t, []int{2}, steps[3].State.Stack())
	require.Equal(t, []int{3}, steps[4].State.Stack())
	require.Equal(t, []int{3, 0}, steps[5].State.Stack())
	require.Equal(t, []int{3, 1}, steps[6].State.Stack())
	require.Equal(t, []int{4}, steps[7].State.Stack())
	require.Equal(t, []int{4}, steps[8].State.Stack())

	require.Equal(t, "OP_ADD", steps[7].Asm)
	require.Equal(t, "top is now 4", steps[7].Description)
}

func TestDemoVMEvaluateMatchesDebugFinalStack(t *testing.T) {
	set := demovm.InstructionSet{}
	script := []byte{demovm.OpZero, demovm.OpIncrement, demovm.OpIncrement}
	state := demovm.New(script)

	evaluated := vm.Evaluate(set, state)
	steps := vm.Debug(set, state, "Begin.")
	require.Equal(t, evaluated.Stack(), steps[len(steps)-1].State.Stack())
}

func TestDemoVMAddWithEmptyStackErrors(t *testing.T) {
	set := demovm.InstructionSet{}
	state := demovm.New([]byte{demovm.OpAdd})

	result := vm.Evaluate(set, state)
	require.Error(t, result.Error())
}

func TestDemoVMUnknownOpcode(t *testing.T) {
	set := demovm.InstructionSet{}
	state := demovm.New([]byte{0xff})

	result := vm.Evaluate(set, state)
	require.Error(t, result.Error())
}
