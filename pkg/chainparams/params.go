// Package chainparams collects the engine limits and magic byte sequences
// that the VM and opcode set treat as configuration rather than literals
// scattered through the code, the way thoughtd/chaincfg and mass-core/config
// hold consensus parameters as data.
package chainparams

// Params bundles the limits a script engine enforces. Default() matches the
// Bitcoin Cash consensus values this spec targets; tests may construct a
// Params with different limits to exercise boundary behavior.
type Params struct {
	// MaxScriptElementSize is the maximum number of bytes a single stack
	// element (and therefore a single push) may carry.
	MaxScriptElementSize int
	// MaxOpsPerScript bounds the number of non-push operations executed
	// in a single pass. Not enforced by the opcode subset implemented
	// here (none of OP_DUP/OP_EQUAL/OP_VERIFY/OP_HASH160/OP_CHECKSIG come
	// close), but kept as data so a larger instruction set can consult it.
	MaxOpsPerScript int
	// PermittedSighashTypes is the set of sighash-type bytes (FORKID bit
	// masked off, ANYONECANPAY variants listed explicitly) OP_CHECKSIG
	// accepts as validly encoded.
	PermittedSighashTypes []byte
}

// SigHash type bytes, BCH/BIP143 style.
const (
	SigHashAll          byte = 0x01
	SigHashNone         byte = 0x02
	SigHashSingle       byte = 0x03
	SigHashAnyOneCanPay byte = 0x80
	SigHashForkID       byte = 0x40
)

// P2SH template bytes (§4.7 / §6): HASH160 <20 bytes> EQUAL.
const (
	P2SHScriptLength = 23
	P2SHHashLength   = 20
)

// Default returns the Bitcoin Cash consensus parameters this VM targets.
func Default() Params {
	return Params{
		MaxScriptElementSize: 520,
		MaxOpsPerScript:      201,
		PermittedSighashTypes: []byte{
			SigHashAll,
			SigHashNone,
			SigHashSingle,
			SigHashAll | SigHashAnyOneCanPay,
			SigHashNone | SigHashAnyOneCanPay,
			SigHashSingle | SigHashAnyOneCanPay,
		},
	}
}

// IsPermittedSighashType reports whether the base (non-fork-id) sighash byte
// is one the engine accepts from a signature's trailing byte, after the
// SIGHASH_FORKID bit (mandatory for BCH) has been masked off by the caller.
func (p Params) IsPermittedSighashType(b byte) bool {
	for _, allowed := range p.PermittedSighashTypes {
		if allowed == b {
			return true
		}
	}
	return false
}
