// Package composer runs a full Bitcoin Cash authentication program: an
// unlocking script evaluated against an empty stack, its resulting stack fed
// into the locking script, and — when the locking script matches the
// Pay-to-Script-Hash template — a third pass against the serialized redeem
// script, per spec.md §4.7. Run produces a full debug trace across all
// passes; Verify is the cheaper evaluate-only acceptance check.
package composer

import (
	"fmt"

	"github.com/bitcoinecho/scriptvm/pkg/chainparams"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
	"github.com/bitcoinecho/scriptvm/pkg/opcodes"
	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
	"go.uber.org/zap"
)

// Program is one authentication program: an input's unlocking script, the
// previous output's locking script, and the per-input external context the
// underlying opcodes.State carries through every pass.
type Program struct {
	UnlockingScript []byte
	LockingScript   []byte
	External        opcodes.ExternalState
}

// Pass is one evaluated script: which of the (up to three) passes it was,
// its opcode trace, and the ending state.
type Pass struct {
	Name  string
	Steps []vm.Step[opcodes.State]
	Final opcodes.State
}

// Result is the outcome of composing and evaluating a full program.
type Result struct {
	Passes []Pass
	Error  error
}

// Composer holds the collaborators every pass is evaluated against: chain
// parameters (script and element size limits) and the crypto provider
// OP_HASH160/OP_CHECKSIG dispatch to.
type Composer struct {
	Params chainparams.Params
	Crypto cryptoprovider.Provider
	Logger *zap.Logger
}

// New builds a Composer with the default chain parameters and crypto
// provider. Pass a *zap.Logger from the caller's own zap.NewProduction()/
// NewDevelopment() to get structured per-pass logging; nil disables it.
func New(logger *zap.Logger) Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Composer{
		Params: chainparams.Default(),
		Crypto: cryptoprovider.Default(),
		Logger: logger,
	}
}

const p2shScriptLength = chainparams.P2SHScriptLength

// isP2SH reports whether script matches the Pay-to-Script-Hash template:
// OP_HASH160 <20 bytes> OP_EQUAL, exactly 23 bytes long.
func isP2SH(script []byte) bool {
	return len(script) == p2shScriptLength &&
		script[0] == opcodes.OP_HASH160 &&
		script[1] == byte(chainparams.P2SHHashLength) &&
		script[len(script)-1] == opcodes.OP_EQUAL
}

// isPushOnly reports whether every opcode in script is one of the push
// opcodes (OP_DATA_1..75, PUSHDATA1/2/4, OP_1NEGATE, OP_0, OP_1..OP_16).
// P2SH requires the unlocking script be push-only, so its final stack item
// can serve as a verifiable serialized redeem script (spec.md §4.7) — this
// walks the actual opcode stream rather than re-scanning raw bytes, unlike
// the byte-range scan the distilled source used, which could misidentify a
// push's data bytes as opcodes.
func isPushOnly(script []byte) bool {
	ip := 0
	for ip < len(script) {
		opcode := script[ip]
		ip++
		switch {
		case opcode >= opcodes.OP_DATA_1 && opcode <= opcodes.OP_DATA_75:
			ip += int(opcode)
		case opcode == opcodes.OP_PUSHDATA1:
			if ip >= len(script) {
				return false
			}
			ip += 1 + int(script[ip])
		case opcode == opcodes.OP_PUSHDATA2:
			if ip+2 > len(script) {
				return false
			}
			length := int(script[ip]) | int(script[ip+1])<<8
			ip += 2 + length
		case opcode == opcodes.OP_PUSHDATA4:
			if ip+4 > len(script) {
				return false
			}
			length := int(script[ip]) | int(script[ip+1])<<8 | int(script[ip+2])<<16 | int(script[ip+3])<<24
			ip += 4 + length
		case opcode == opcodes.OP_1NEGATE || opcode == opcodes.OP_0 || (opcode >= opcodes.OP_1 && opcode <= opcodes.OP_16):
			// No operand bytes to skip.
		default:
			return false
		}
		if ip > len(script) {
			return false
		}
	}
	return true
}

func syntheticFailure(name string, err error) Pass {
	return syntheticFailureWithDescription(name, err.Error(), err)
}

// syntheticFailureWithDescription is syntheticFailure for the cases where the
// trace must show the spec's own wording rather than a ScriptError's
// "Kind: Detail" rendering (spec.md §4.7 step 3a/b, §8 scenario 6) — the
// returned Pass carries description verbatim while err still drives
// Result.Error for callers checking the error kind.
func syntheticFailureWithDescription(name string, description string, err error) Pass {
	return Pass{
		Name: name,
		Steps: []vm.Step[opcodes.State]{{
			Asm:         "",
			Description: description,
			State:       opcodes.State{},
		}},
	}
}

const (
	p2shNotPushOnlyMessage = "P2SH error: unlockingScript must be push-only."
	p2shEmptyStackMessage  = "P2SH error: unlockingScript must not leave an empty stack."
)

func evaluatePass(comp Composer, name string, script []byte, stack [][]byte, external opcodes.ExternalState) Pass {
	if comp.Logger == nil {
		comp.Logger = zap.NewNop()
	}
	set := opcodes.New(comp.Params.MaxScriptElementSize)
	initial := opcodes.New(script, stack, external, comp.Params, comp.Crypto)
	steps := vm.Debug(set, initial, fmt.Sprintf("Begin %s.", name))
	comp.Logger.Debug("evaluated pass",
		zap.String("pass", name),
		zap.Int("steps", len(steps)),
		zap.Int("script_length", len(script)),
	)
	return Pass{Name: name, Steps: steps, Final: steps[len(steps)-1].State}
}

// Run evaluates the full program and returns a debug trace for every pass
// it performs. Passes stop being added once a pass fails, since later
// passes have nothing valid to run against; the one exception is a P2SH
// locking script with a push-only unlocking script that leaves an empty
// stack, where the P2SH empty-stack step follows the locking pass whatever
// that pass's outcome.
func Run(comp Composer, program Program) Result {
	unlockPass := evaluatePass(comp, "unlocking script evaluation", program.UnlockingScript, nil, program.External)
	passes := []Pass{unlockPass}
	if err := unlockPass.Final.Error(); err != nil {
		return Result{Passes: passes, Error: err}
	}

	lockPass := evaluatePass(comp, "locking script evaluation", program.LockingScript, unlockPass.Final.Stack(), program.External)
	passes = append(passes, lockPass)
	stackBeforeHash160 := unlockPass.Final.Stack()
	if isP2SH(program.LockingScript) && isPushOnly(program.UnlockingScript) && len(stackBeforeHash160) == 0 {
		err := vmerrors.New(vmerrors.EmptyStack, p2shEmptyStackMessage)
		passes = append(passes, syntheticFailureWithDescription("p2sh redeem script evaluation", p2shEmptyStackMessage, err))
		return Result{Passes: passes, Error: err}
	}
	if err := lockPass.Final.Error(); err != nil {
		return Result{Passes: passes, Error: err}
	}

	top, ok := peekTop(lockPass.Final)
	if !ok || !isTrueTop(top) {
		err := vmerrors.New(vmerrors.FailedVerify, "locking script evaluation left a false top stack item")
		passes = append(passes, syntheticFailure("final stack check", err))
		return Result{Passes: passes, Error: err}
	}

	if !isP2SH(program.LockingScript) {
		return Result{Passes: passes}
	}

	if !isPushOnly(program.UnlockingScript) {
		err := vmerrors.New(vmerrors.FailedVerify, p2shNotPushOnlyMessage)
		passes = append(passes, syntheticFailureWithDescription("p2sh redeem script evaluation", p2shNotPushOnlyMessage, err))
		return Result{Passes: passes, Error: err}
	}

	redeemScript := stackBeforeHash160[len(stackBeforeHash160)-1]
	redeemStack := append([][]byte{}, stackBeforeHash160[:len(stackBeforeHash160)-1]...)

	redeemPass := evaluatePass(comp, "p2sh redeem script evaluation", redeemScript, redeemStack, program.External)
	passes = append(passes, redeemPass)
	if err := redeemPass.Final.Error(); err != nil {
		return Result{Passes: passes, Error: err}
	}

	top, ok = peekTop(redeemPass.Final)
	if !ok || !isTrueTop(top) {
		err := vmerrors.New(vmerrors.FailedVerify, "p2sh redeem script evaluation left a false top stack item")
		passes = append(passes, syntheticFailure("final stack check", err))
		return Result{Passes: passes, Error: err}
	}

	return Result{Passes: passes}
}

// Verify is the cheap accept/reject check: it runs the same three passes as
// Run but never materializes a trace, mirroring the source's
// verifyBitcoinCashAuthenticationProgram.
func Verify(comp Composer, program Program) error {
	set := opcodes.New(comp.Params.MaxScriptElementSize)

	unlocked := vm.Evaluate(set, opcodes.New(program.UnlockingScript, nil, program.External, comp.Params, comp.Crypto))
	if err := unlocked.Error(); err != nil {
		return err
	}

	locked := vm.Evaluate(set, opcodes.New(program.LockingScript, unlocked.Stack(), program.External, comp.Params, comp.Crypto))
	stack := unlocked.Stack()
	if isP2SH(program.LockingScript) && isPushOnly(program.UnlockingScript) && len(stack) == 0 {
		return vmerrors.New(vmerrors.EmptyStack, p2shEmptyStackMessage)
	}
	if err := locked.Error(); err != nil {
		return err
	}
	top, ok := peekTop(locked)
	if !ok || !isTrueTop(top) {
		return vmerrors.New(vmerrors.FailedVerify, "locking script evaluation left a false top stack item")
	}

	if !isP2SH(program.LockingScript) {
		return nil
	}
	if !isPushOnly(program.UnlockingScript) {
		return vmerrors.New(vmerrors.FailedVerify, p2shNotPushOnlyMessage)
	}

	redeemScript := stack[len(stack)-1]
	redeemStack := append([][]byte{}, stack[:len(stack)-1]...)

	redeemed := vm.Evaluate(set, opcodes.New(redeemScript, redeemStack, program.External, comp.Params, comp.Crypto))
	if err := redeemed.Error(); err != nil {
		return err
	}
	top, ok = peekTop(redeemed)
	if !ok || !isTrueTop(top) {
		return vmerrors.New(vmerrors.FailedVerify, "p2sh redeem script evaluation left a false top stack item")
	}
	return nil
}

func peekTop(s opcodes.State) ([]byte, bool) {
	stack := s.Stack()
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

func isTrueTop(b []byte) bool {
	for i, v := range b {
		if v != 0 {
			if i == len(b)-1 && v == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}
