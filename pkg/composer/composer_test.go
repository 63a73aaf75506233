package composer_test

import (
	"errors"
	"testing"

	"github.com/bitcoinecho/scriptvm/pkg/composer"
	"github.com/bitcoinecho/scriptvm/pkg/opcodes"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
	"github.com/stretchr/testify/require"
)

func dataPush(data []byte) []byte {
	return append([]byte{byte(len(data))}, data...)
}

func TestRunSimpleSuccess(t *testing.T) {
	comp := composer.New(nil)
	program := composer.Program{
		UnlockingScript: dataPush([]byte{0xab}),
		LockingScript:   append(dataPush([]byte{0xab}), opcodes.OP_EQUAL),
	}

	result := composer.Run(comp, program)
	require.NoError(t, result.Error)
	require.Len(t, result.Passes, 2)
}

func TestRunSimpleFailure(t *testing.T) {
	comp := composer.New(nil)
	program := composer.Program{
		UnlockingScript: dataPush([]byte{0xab}),
		LockingScript:   append(dataPush([]byte{0xcd}), opcodes.OP_EQUAL, opcodes.OP_VERIFY),
	}

	result := composer.Run(comp, program)
	require.Error(t, result.Error)
}

func redeemScriptAndHash(comp composer.Composer, redeem []byte) (hash [20]byte) {
	return comp.Crypto.Hash160(redeem)
}

func TestRunP2SHSuccess(t *testing.T) {
	comp := composer.New(nil)

	redeemScript := []byte{opcodes.OP_1}
	hash := redeemScriptAndHash(comp, redeemScript)

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	unlockingScript := dataPush(redeemScript)

	result := composer.Run(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	})
	require.NoError(t, result.Error)
	require.Len(t, result.Passes, 3)
	require.Equal(t, "p2sh redeem script evaluation", result.Passes[2].Name)
}

func TestRunP2SHRejectsNonPushOnlyUnlock(t *testing.T) {
	comp := composer.New(nil)

	redeemScript := []byte{opcodes.OP_1}
	hash := redeemScriptAndHash(comp, redeemScript)

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	unlockingScript := append(dataPush(redeemScript), opcodes.OP_DUP)

	result := composer.Run(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	})
	require.Error(t, result.Error)
	require.Len(t, result.Passes, 3)
	last := result.Passes[2]
	require.Equal(t, "p2sh redeem script evaluation", last.Name)
	require.Len(t, last.Steps, 1)
	require.Equal(t, "P2SH error: unlockingScript must be push-only.", last.Steps[0].Description)
}

func TestRunP2SHRejectsEmptyStack(t *testing.T) {
	comp := composer.New(nil)

	redeemScript := []byte{opcodes.OP_1}
	hash := redeemScriptAndHash(comp, redeemScript)

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	// An empty unlocking script is trivially push-only but leaves the stack
	// empty, so there is no redeem script to extract.
	unlockingScript := []byte{}

	result := composer.Run(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	})
	require.Error(t, result.Error)
	require.Len(t, result.Passes, 3)
	last := result.Passes[2]
	require.Equal(t, "p2sh redeem script evaluation", last.Name)
	require.Len(t, last.Steps, 1)
	require.Equal(t, "P2SH error: unlockingScript must not leave an empty stack.", last.Steps[0].Description)
}

func TestVerifyMatchesRunOutcome(t *testing.T) {
	comp := composer.New(nil)
	program := composer.Program{
		UnlockingScript: dataPush([]byte{0xab}),
		LockingScript:   append(dataPush([]byte{0xab}), opcodes.OP_EQUAL),
	}

	require.NoError(t, composer.Verify(comp, program))

	program.LockingScript = append(dataPush([]byte{0xcd}), opcodes.OP_EQUAL)
	require.Error(t, composer.Verify(comp, program))
}

func TestVerifyP2SHRejectsNonPushOnlyUnlock(t *testing.T) {
	comp := composer.New(nil)

	redeemScript := []byte{opcodes.OP_1}
	hash := redeemScriptAndHash(comp, redeemScript)

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	unlockingScript := append(dataPush(redeemScript), opcodes.OP_DUP)

	err := composer.Verify(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	})
	require.Error(t, err)
	var scriptErr *vmerrors.ScriptError
	require.True(t, errors.As(err, &scriptErr))
	require.Equal(t, "P2SH error: unlockingScript must be push-only.", scriptErr.Detail)
}

func TestVerifyP2SHRejectsEmptyStack(t *testing.T) {
	comp := composer.New(nil)

	redeemScript := []byte{opcodes.OP_1}
	hash := redeemScriptAndHash(comp, redeemScript)

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	err := composer.Verify(comp, composer.Program{
		UnlockingScript: []byte{},
		LockingScript:   lockingScript,
	})
	require.Error(t, err)
	var scriptErr *vmerrors.ScriptError
	require.True(t, errors.As(err, &scriptErr))
	require.Equal(t, "P2SH error: unlockingScript must not leave an empty stack.", scriptErr.Detail)
}

func TestVerifyP2SHWrongHashFails(t *testing.T) {
	comp := composer.New(nil)
	redeemScript := []byte{opcodes.OP_1}

	lockingScript := []byte{opcodes.OP_HASH160, 0x14}
	lockingScript = append(lockingScript, make([]byte, 20)...) // wrong hash
	lockingScript = append(lockingScript, opcodes.OP_EQUAL)

	unlockingScript := dataPush(redeemScript)

	require.Error(t, composer.Verify(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	}))
}
