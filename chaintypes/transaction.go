package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// RawL2Transaction is an L2 transaction's unsigned half. Args carries the
// polyjuice tag/payload when present (§4.4).
type RawL2Transaction struct {
	ChainID uint64
	FromID  uint32
	ToID    uint32
	Nonce   uint32
	Args    []byte
}

const rawL2TransactionFieldCount = 5

func (r RawL2Transaction) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		putU64(r.ChainID),
		putU32(r.FromID),
		putU32(r.ToID),
		putU32(r.Nonce),
		molecule.BuildBytes(r.Args),
	})
}

func ParseRawL2Transaction(raw []byte) (*RawL2Transaction, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < rawL2TransactionFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: RawL2Transaction missing fields")
	}
	chainIDRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	chainID, err := getU64(chainIDRaw)
	if err != nil {
		return nil, err
	}
	fromRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	from, err := getU32(fromRaw)
	if err != nil {
		return nil, err
	}
	toRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	to, err := getU32(toRaw)
	if err != nil {
		return nil, err
	}
	nonceRaw, err := tbl.Field(3)
	if err != nil {
		return nil, err
	}
	nonce, err := getU32(nonceRaw)
	if err != nil {
		return nil, err
	}
	argsRaw, err := tbl.Field(4)
	if err != nil {
		return nil, err
	}
	args, err := molecule.ParseBytes(argsRaw)
	if err != nil {
		return nil, err
	}
	return &RawL2Transaction{ChainID: chainID, FromID: from, ToID: to, Nonce: nonce, Args: args}, nil
}

// L2Transaction pairs a raw transaction with its signer's signature.
type L2Transaction struct {
	Raw       RawL2Transaction
	Signature rollupcrypto.RecoverableSignature
}

func (t L2Transaction) Marshal() []byte {
	return molecule.BuildTable([][]byte{t.Raw.Marshal(), t.Signature[:]})
}

func ParseL2Transaction(raw []byte) (*L2Transaction, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: L2Transaction missing fields")
	}
	rawRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	rawTx, err := ParseRawL2Transaction(rawRaw)
	if err != nil {
		return nil, err
	}
	sigRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	if len(sigRaw) != 65 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: L2Transaction signature must be 65 bytes")
	}
	var sig rollupcrypto.RecoverableSignature
	copy(sig[:], sigRaw)
	return &L2Transaction{Raw: *rawTx, Signature: sig}, nil
}

// WitnessHash is the leaf value a transaction contributes to a block's
// tx-witness-root, and the value a challenge's TxContext proof must
// reproduce at tx-index. Unlike withdrawal-witness-root, this root is an
// SMT commitment keyed by smt.ComputeKey(tx-index), not a CBMT.
func (t L2Transaction) WitnessHash() Hash {
	return rollupcrypto.CKBBlake2b(t.Marshal())
}
