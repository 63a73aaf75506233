package opcodes

import (
	"bytes"

	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
	"github.com/bitcoinecho/scriptvm/pkg/sighash"
	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
)

var trueValue = []byte{0x01}
var falseValue = []byte{}

func isTrue(b []byte) bool {
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

func verify(s State) (State, bool) {
	s, top, ok := s.pop()
	if !ok {
		return s.WithError(vmerrors.New(vmerrors.EmptyStack, "OP_VERIFY: stack is empty")), false
	}
	if !isTrue(top) {
		return s.WithError(vmerrors.New(vmerrors.FailedVerify, "OP_VERIFY: top of stack is false")), false
	}
	return s, true
}

var opDup = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_DUP"),
	Description: vm.Static[State]("duplicate the top stack item"),
	Operation: func(s State) State {
		top, ok := s.peek()
		if !ok {
			return s.WithError(vmerrors.New(vmerrors.EmptyStack, "OP_DUP: stack is empty"))
		}
		return s.push(top)
	},
}

var opEqual = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_EQUAL"),
	Description: vm.Static[State]("compare the top two stack items"),
	Operation: func(s State) State {
		s, b, ok1 := s.pop()
		s, a, ok2 := s.pop()
		if !ok1 || !ok2 {
			return s.WithError(vmerrors.New(vmerrors.EmptyStack, "OP_EQUAL: requires two stack items"))
		}
		if bytes.Equal(a, b) {
			return s.push(trueValue)
		}
		return s.push(falseValue)
	},
}

var opEqualVerify = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_EQUALVERIFY"),
	Description: vm.Static[State]("compare the top two stack items, then verify"),
	Operation: func(s State) State {
		s = opEqual.Operation(s)
		if s.Error() != nil {
			return s
		}
		s, _ = verify(s)
		return s
	},
}

var opVerify = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_VERIFY"),
	Description: vm.Static[State]("fail unless the top of stack is true"),
	Operation: func(s State) State {
		s, _ = verify(s)
		return s
	},
}

var opReturn = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_RETURN"),
	Description: vm.Static[State]("immediately fail evaluation"),
	Operation: func(s State) State {
		return s.WithError(vmerrors.New(vmerrors.CalledReturn, "OP_RETURN"))
	},
}

var opHash160 = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_HASH160"),
	Description: vm.Static[State]("RIPEMD160(SHA256(x)) of the top stack item"),
	Operation: func(s State) State {
		s, top, ok := s.pop()
		if !ok {
			return s.WithError(vmerrors.New(vmerrors.EmptyStack, "OP_HASH160: stack is empty"))
		}
		digest := s.Crypto.Hash160(top)
		return s.push(digest[:])
	},
}

var opCodeSeparator = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_CODESEPARATOR"),
	Description: vm.Static[State]("mark the start of script code for future signature checks"),
	Operation: func(s State) State {
		return s.setCodeSeparator()
	},
}

var opCheckSig = vm.Operator[State]{
	Asm:         vm.Static[State]("OP_CHECKSIG"),
	Description: vm.Static[State]("verify a signature against a public key and the current script code"),
	Operation: func(s State) State {
		s, pubKey, okPub := s.pop()
		s, sig, okSig := s.pop()
		if !okPub || !okSig {
			return s.WithError(vmerrors.New(vmerrors.EmptyStack, "OP_CHECKSIG: requires a signature and a public key"))
		}
		if len(sig) == 0 {
			return s.push(falseValue)
		}
		if !cryptoprovider.IsValidSignatureEncoding(sig, s.Params) {
			return s.WithError(vmerrors.New(vmerrors.InvalidSignatureEncoding, "OP_CHECKSIG: signature is not strict DER, low-S, with a permitted sighash type"))
		}
		if !cryptoprovider.IsValidPublicKeyEncoding(pubKey) {
			return s.WithError(vmerrors.New(vmerrors.InvalidPublicKeyEncoding, "OP_CHECKSIG: public key is not a valid compressed or uncompressed encoding"))
		}

		der, sighashType, _ := cryptoprovider.SplitSignatureAndSighashType(sig)
		ext := s.External()
		digest := sighash.Digest(sighash.Request{
			Version:                        ext.Version,
			TransactionOutpointsHash:       ext.TransactionOutpointsHash,
			TransactionSequenceNumbersHash: ext.TransactionSequenceNumbersHash,
			TransactionOutputsHash:         ext.TransactionOutputsHash,
			CorrespondingOutputHash:        ext.CorrespondingOutputHash,
			OutpointTransactionHash:        ext.OutpointTransactionHash,
			OutpointIndex:                  ext.OutpointIndex,
			ScriptCode:                     s.scriptCode(),
			OutpointValue:                  ext.OutpointValue,
			SequenceNumber:                 ext.SequenceNumber,
			Locktime:                       ext.Locktime,
			SighashType:                    sighashType,
		}, s.Crypto)

		if s.Crypto.Secp256k1.VerifySignatureDERLowS(der, pubKey, digest[:]) {
			return s.push(trueValue)
		}
		return s.push(falseValue)
	},
}
