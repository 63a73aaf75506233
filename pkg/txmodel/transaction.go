// Package txmodel is the transaction model the authentication program
// composer (pkg/composer) runs against: Transaction/TxInput/TxOutput/
// OutPoint, wire (de)serialization, and BuildExternalState, which
// precomputes the whole-transaction hashes the sighash preimage (pkg/sighash)
// needs, once per transaction rather than once per input.
//
// Adapted from the teacher's pkg/bitcoin/transaction.go: the wire format and
// varint helpers are kept, but Hash() now computes a real
// double-SHA256 instead of returning a zero hash, and BuildExternalState is
// new — the teacher had no signature-checking code to feed.
package txmodel

import (
	"bytes"
	"fmt"

	"github.com/bitcoinecho/scriptvm/pkg/bytesutil"
	"github.com/bitcoinecho/scriptvm/pkg/cryptoprovider"
	"github.com/bitcoinecho/scriptvm/pkg/opcodes"
)

// OutPoint references a specific output of a previous transaction.
type OutPoint struct {
	Hash  Hash256
	Index uint32
}

func (op OutPoint) String() string { return fmt.Sprintf("%s:%d", op.Hash.String(), op.Index) }

func (op OutPoint) IsNull() bool {
	return op.Hash.IsZero() && op.Index == 0xffffffff
}

// TxInput is one transaction input: the outpoint it spends, its unlocking
// script, and its sequence number.
type TxInput struct {
	PreviousOutput OutPoint
	ScriptSig      []byte
	Sequence       uint32
}

// TxOutput is one transaction output: its value in satoshis and its locking
// script.
type TxOutput struct {
	Value        uint64
	ScriptPubKey []byte
}

// Transaction is a Bitcoin Cash transaction: legacy wire format, no segwit
// marker/flag/witness fields (spec.md's non-goals exclude SegWit; BCH never
// adopted it).
type Transaction struct {
	Version  uint32
	Inputs   []TxInput
	Outputs  []TxOutput
	LockTime uint32

	hash *Hash256
}

func NewTransaction(version uint32, inputs []TxInput, outputs []TxOutput, lockTime uint32) *Transaction {
	return &Transaction{Version: version, Inputs: inputs, Outputs: outputs, LockTime: lockTime}
}

// Serialize converts the transaction to Bitcoin wire format.
func (tx *Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(bytesutil.NumberToBinUint32LE(tx.Version))
	buf.Write(bytesutil.EncodeVarInt(uint64(len(tx.Inputs))))

	for _, input := range tx.Inputs {
		hashBytes := input.PreviousOutput.Hash.Bytes()
		for i := len(hashBytes) - 1; i >= 0; i-- {
			buf.WriteByte(hashBytes[i])
		}
		buf.Write(bytesutil.NumberToBinUint32LE(input.PreviousOutput.Index))
		buf.Write(bytesutil.EncodeVarInt(uint64(len(input.ScriptSig))))
		buf.Write(input.ScriptSig)
		buf.Write(bytesutil.NumberToBinUint32LE(input.Sequence))
	}

	buf.Write(bytesutil.EncodeVarInt(uint64(len(tx.Outputs))))
	for _, output := range tx.Outputs {
		buf.Write(bytesutil.BigIntToBinUint64LE(output.Value))
		buf.Write(bytesutil.EncodeVarInt(uint64(len(output.ScriptPubKey))))
		buf.Write(output.ScriptPubKey)
	}

	buf.Write(bytesutil.NumberToBinUint32LE(tx.LockTime))
	return buf.Bytes(), nil
}

// DeserializeTransaction parses a transaction from Bitcoin wire format.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("insufficient data for version")
	}
	tx := &Transaction{}
	offset := 0

	tx.Version, _ = bytesutil.BinToNumberUint32LE(data[offset : offset+4])
	offset += 4

	inputCount, err := decodeCount(data[offset:], "input count")
	if err != nil {
		return nil, err
	}
	offset += inputCount.NextOffset

	tx.Inputs = make([]TxInput, int(inputCount.Value))
	for i := range tx.Inputs {
		if len(data[offset:]) < 32 {
			return nil, fmt.Errorf("insufficient data for input %d hash", i)
		}
		for j := 0; j < 32; j++ {
			tx.Inputs[i].PreviousOutput.Hash[j] = data[offset+31-j]
		}
		offset += 32

		if len(data[offset:]) < 4 {
			return nil, fmt.Errorf("insufficient data for input %d index", i)
		}
		tx.Inputs[i].PreviousOutput.Index, _ = bytesutil.BinToNumberUint32LE(data[offset : offset+4])
		offset += 4

		scriptLen, err := decodeCount(data[offset:], fmt.Sprintf("input %d script length", i))
		if err != nil {
			return nil, err
		}
		offset += scriptLen.NextOffset

		scriptLenInt := int(scriptLen.Value)
		if len(data[offset:]) < scriptLenInt {
			return nil, fmt.Errorf("insufficient data for input %d script", i)
		}
		tx.Inputs[i].ScriptSig = append([]byte{}, data[offset:offset+scriptLenInt]...)
		offset += scriptLenInt

		if len(data[offset:]) < 4 {
			return nil, fmt.Errorf("insufficient data for input %d sequence", i)
		}
		tx.Inputs[i].Sequence, _ = bytesutil.BinToNumberUint32LE(data[offset : offset+4])
		offset += 4
	}

	outputCount, err := decodeCount(data[offset:], "output count")
	if err != nil {
		return nil, err
	}
	offset += outputCount.NextOffset

	tx.Outputs = make([]TxOutput, int(outputCount.Value))
	for i := range tx.Outputs {
		if len(data[offset:]) < 8 {
			return nil, fmt.Errorf("insufficient data for output %d value", i)
		}
		tx.Outputs[i].Value, _ = bytesutil.BinToBigIntUint64LE(data[offset : offset+8])
		offset += 8

		scriptLen, err := decodeCount(data[offset:], fmt.Sprintf("output %d script length", i))
		if err != nil {
			return nil, err
		}
		offset += scriptLen.NextOffset

		scriptLenInt := int(scriptLen.Value)
		if len(data[offset:]) < scriptLenInt {
			return nil, fmt.Errorf("insufficient data for output %d script", i)
		}
		tx.Outputs[i].ScriptPubKey = append([]byte{}, data[offset:offset+scriptLenInt]...)
		offset += scriptLenInt
	}

	if len(data[offset:]) < 4 {
		return nil, fmt.Errorf("insufficient data for locktime")
	}
	tx.LockTime, _ = bytesutil.BinToNumberUint32LE(data[offset : offset+4])

	return tx, nil
}

func decodeCount(data []byte, what string) (bytesutil.DecodedVarInt, error) {
	decoded, err := bytesutil.DecodeVarInt(data)
	if err != nil {
		return bytesutil.DecodedVarInt{}, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	if decoded.Value > 0x7fffffff {
		return bytesutil.DecodedVarInt{}, fmt.Errorf("%s too large: %d", what, decoded.Value)
	}
	return decoded, nil
}

// Hash returns the transaction id: double-SHA256 of the legacy
// serialization, cached after first computation.
func (tx *Transaction) Hash(crypto cryptoprovider.Provider) Hash256 {
	if tx.hash == nil {
		serialized, _ := tx.Serialize()
		hash := Hash256(crypto.DoubleSHA256(serialized))
		tx.hash = &hash
	}
	return *tx.hash
}

func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		tx.Inputs[0].PreviousOutput.Hash.IsZero() &&
		tx.Inputs[0].PreviousOutput.Index == 0xffffffff
}

func (tx *Transaction) TotalOutput() uint64 {
	var total uint64
	for _, output := range tx.Outputs {
		total += output.Value
	}
	return total
}

// MaxMoney is the maximum number of satoshis that can ever exist.
const MaxMoney = 21000000 * 100000000

// Validate performs the sanity checks any transaction accepted into the
// composer must pass before its inputs are evaluated.
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return fmt.Errorf("transaction has no outputs")
	}

	seen := make(map[OutPoint]bool)
	for _, input := range tx.Inputs {
		if seen[input.PreviousOutput] {
			return fmt.Errorf("transaction has duplicate inputs")
		}
		seen[input.PreviousOutput] = true
	}

	for i, output := range tx.Outputs {
		if output.Value > MaxMoney {
			return fmt.Errorf("output %d value exceeds maximum", i)
		}
	}
	if tx.TotalOutput() > MaxMoney {
		return fmt.Errorf("total output value exceeds maximum")
	}
	return nil
}

// PreviousOutputValue is the spent coin's value for one input, supplied by
// the caller since a transaction alone doesn't carry what it spends.
type PreviousOutputValue struct {
	Value uint64
}

// BuildExternalState precomputes the three whole-transaction hashes BIP143
// -style sighashing needs (hashPrevouts, hashSequence, hashOutputs) once,
// then returns the per-input opcodes.ExternalState for inputIndex. Without a
// concrete implementation like this one, pkg/sighash and pkg/composer would
// have nothing to run end-to-end against.
func BuildExternalState(tx *Transaction, inputIndex int, spentValues []PreviousOutputValue, blockHeight, blockTime uint32, crypto cryptoprovider.Provider) (opcodes.ExternalState, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return opcodes.ExternalState{}, fmt.Errorf("input index %d out of range", inputIndex)
	}
	if len(spentValues) != len(tx.Inputs) {
		return opcodes.ExternalState{}, fmt.Errorf("spentValues must have one entry per input")
	}

	outpointsHash := crypto.DoubleSHA256(serializeOutpoints(tx))
	sequenceHash := crypto.DoubleSHA256(serializeSequenceNumbers(tx))
	outputsHash := crypto.DoubleSHA256(serializeOutputs(tx.Outputs))

	var correspondingOutputHash [32]byte
	if inputIndex < len(tx.Outputs) {
		correspondingOutputHash = crypto.DoubleSHA256(serializeOutputs(tx.Outputs[inputIndex : inputIndex+1]))
	}

	input := tx.Inputs[inputIndex]
	return opcodes.ExternalState{
		BlockHeight: blockHeight,
		BlockTime:   blockTime,
		Locktime:    tx.LockTime,
		Version:     tx.Version,

		TransactionOutpointsHash:       outpointsHash,
		TransactionOutputsHash:         outputsHash,
		TransactionSequenceNumbersHash: sequenceHash,
		CorrespondingOutputHash:        correspondingOutputHash,

		OutpointTransactionHash: [32]byte(input.PreviousOutput.Hash),
		OutpointIndex:           input.PreviousOutput.Index,
		OutpointValue:           spentValues[inputIndex].Value,
		SequenceNumber:          input.Sequence,
	}, nil
}

func serializeOutpoints(tx *Transaction) []byte {
	var buf bytes.Buffer
	for _, input := range tx.Inputs {
		hashBytes := input.PreviousOutput.Hash.Bytes()
		for i := len(hashBytes) - 1; i >= 0; i-- {
			buf.WriteByte(hashBytes[i])
		}
		buf.Write(bytesutil.NumberToBinUint32LE(input.PreviousOutput.Index))
	}
	return buf.Bytes()
}

func serializeSequenceNumbers(tx *Transaction) []byte {
	var buf bytes.Buffer
	for _, input := range tx.Inputs {
		buf.Write(bytesutil.NumberToBinUint32LE(input.Sequence))
	}
	return buf.Bytes()
}

func serializeOutputs(outputs []TxOutput) []byte {
	var buf bytes.Buffer
	for _, output := range outputs {
		buf.Write(bytesutil.BigIntToBinUint64LE(output.Value))
		buf.Write(bytesutil.EncodeVarInt(uint64(len(output.ScriptPubKey))))
		buf.Write(output.ScriptPubKey)
	}
	return buf.Bytes()
}
