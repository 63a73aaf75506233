package opcodes

import (
	"fmt"

	"github.com/bitcoinecho/scriptvm/pkg/bytesutil"
	"github.com/bitcoinecho/scriptvm/pkg/vm"
	"github.com/bitcoinecho/scriptvm/pkg/vmerrors"
)

// constantDataPush builds the Operator for one of OP_DATA_1..OP_DATA_75: push
// the next `length` script bytes onto the stack as a single element.
func constantDataPush(length int) vm.Operator[State] {
	return vm.Operator[State]{
		Asm:         vm.Static[State](fmt.Sprintf("OP_DATA_%d", length)),
		Description: vm.Static[State](fmt.Sprintf("push %d bytes", length)),
		Operation: func(s State) State {
			script := s.Script()
			start := s.IP()
			if start+length > len(script) {
				return s.WithError(vmerrors.New(vmerrors.MalformedPush, "constant data push runs past end of script"))
			}
			data := script[start : start+length]
			return s.advance(length).push(data)
		},
	}
}

// smallNumberPush builds the Operator for OP_1NEGATE, OP_0 or OP_1..OP_16: push a
// single minimally-encoded Script Number constant with no length prefix in
// the script itself.
func smallNumberPush(value int) vm.Operator[State] {
	encoded := encodeSmallNumber(value)
	return vm.Operator[State]{
		Asm:         vm.Static[State](smallNumberAsm(value)),
		Description: vm.Static[State](fmt.Sprintf("push the number %d", value)),
		Operation: func(s State) State {
			return s.push(encoded)
		},
	}
}

func smallNumberAsm(value int) string {
	if value == -1 {
		return "OP_1NEGATE"
	}
	return fmt.Sprintf("OP_%d", value)
}

// encodeSmallNumber mirrors pkg/scriptnum's minimal encoding for the small
// integer range these opcodes push, duplicated inline rather than calling
// scriptnum.Encode. Like Encode, it maps 0 to the empty array.
func encodeSmallNumber(value int) []byte {
	if value == 0 {
		return []byte{}
	}
	negative := value < 0
	abs := value
	if negative {
		abs = -abs
	}
	var b []byte
	for abs > 0 {
		b = append(b, byte(abs&0xff))
		abs >>= 8
	}
	if b[len(b)-1]&0x80 != 0 {
		if negative {
			b = append(b, 0x80)
		} else {
			b = append(b, 0x00)
		}
	} else if negative {
		b[len(b)-1] |= 0x80
	}
	return b
}

// variablePush builds the Operator for PUSHDATA1/2/4: read a `lengthBytes`
// little-endian length prefix, then push that many following script bytes.
// PUSHDATA4's length field can express a value far beyond MaxScriptElementSize,
// so with the spec's 520-byte limit enforced it can never succeed — that is
// intentional (spec.md §4.4), not a bug to route around.
func variablePush(opcodeName string, lengthBytes int, maxElementSize int) vm.Operator[State] {
	return vm.Operator[State]{
		Asm:         vm.Static[State](opcodeName),
		Description: vm.Static[State](fmt.Sprintf("push data with a %d-byte length prefix", lengthBytes)),
		Operation: func(s State) State {
			script := s.Script()
			start := s.IP()
			if start+lengthBytes > len(script) {
				return s.WithError(vmerrors.New(vmerrors.MalformedPush, "length prefix runs past end of script"))
			}
			prefix := script[start : start+lengthBytes]
			length, err := decodeLengthLE(prefix)
			if err != nil {
				return s.WithError(vmerrors.New(vmerrors.MalformedPush, err.Error()))
			}
			if length < minimumLength(lengthBytes) {
				return s.WithError(vmerrors.New(vmerrors.NonMinimalPush, fmt.Sprintf("%s could have been encoded with a shorter push", opcodeName)))
			}
			if length > maxElementSize {
				return s.WithError(vmerrors.New(vmerrors.ExceedsMaximumPush, fmt.Sprintf("%d exceeds maximum push size %d", length, maxElementSize)))
			}
			s = s.advance(lengthBytes)
			dataStart := s.IP()
			if dataStart+length > len(script) {
				return s.WithError(vmerrors.New(vmerrors.MalformedPush, "push data runs past end of script"))
			}
			data := script[dataStart : dataStart+length]
			return s.advance(length).push(data)
		},
	}
}

// minimumLength is the smallest push length that actually requires a
// lengthBytes-wide prefix to encode; below it, a shorter push opcode could
// have expressed the same data, so spec.md §4.4 step 4 requires
// NonMinimalPush rather than letting the push through. OP_DATA_1..75
// already covers every length up to 75, so PUSHDATA1 is non-minimal below
// 76; PUSHDATA2's 1-byte-prefix range covers up to 255, so it's non-minimal
// below 256; likewise PUSHDATA4 below 65536.
func minimumLength(lengthBytes int) int {
	switch lengthBytes {
	case 1:
		return 76
	case 2:
		return 256
	case 4:
		return 65536
	default:
		return 0
	}
}

func decodeLengthLE(b []byte) (int, error) {
	switch len(b) {
	case 1:
		return int(b[0]), nil
	case 2:
		v, err := bytesutil.BinToNumberUint16LE(b)
		return int(v), err
	case 4:
		// PUSHDATA4's length field can express values far beyond
		// maxElementSize; the caller's size check rejects them, so no
		// special-casing is needed here beyond a plain widening int(v).
		v, err := bytesutil.BinToNumberUint32LE(b)
		return int(v), err
	default:
		return 0, fmt.Errorf("unsupported length prefix width %d", len(b))
	}
}
