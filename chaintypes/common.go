// Package chaintypes defines the Go value types for every on-chain
// structure this core reads or writes: GlobalState, RollupConfig, L2Block,
// L2Transaction, WithdrawalRequest, the five cell-args shapes, and the two
// tagged unions (RollupAction, UnlockWithdrawalWitness). Field sets and
// wire shapes are grounded on original_source's gw_types schema; accessor
// naming follows the value-type-with-methods idiom the teacher uses in
// core/types/common.go (Hash/Address as [N]byte with Bytes/Hex/IsZero).
package chaintypes

import (
	"encoding/binary"

	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Hash is a 32-byte content hash: script hash, block hash, tx witness hash.
type Hash [32]byte

func (h Hash) IsZero() bool { return h == Hash{} }
func (h Hash) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

// BytesToHash truncates or zero-extends b into a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// Script is a lock or type script as parsed from molecule bytes.
type Script struct {
	CodeHash Hash
	HashType byte // 0 = data, 1 = type
	Args     []byte
}

const (
	HashTypeData byte = 0
	HashTypeType byte = 1
)

// fieldCount for a Script table.
const scriptFieldCount = 3

func ParseScript(raw []byte) (*Script, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < scriptFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: Script missing fields")
	}
	codeHash, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	hashType, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	if len(codeHash) != 32 || len(hashType) != 1 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: Script field length mismatch")
	}
	args, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	args, err = molecule.ParseBytes(args)
	if err != nil {
		return nil, err
	}
	return &Script{CodeHash: BytesToHash(codeHash), HashType: hashType[0], Args: args}, nil
}

func (s Script) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		s.CodeHash.Bytes(),
		{s.HashType},
		molecule.BuildBytes(s.Args),
	})
}

// Hash is this script's cell identity hash: CKBBlake2b over its molecule
// encoding, the same hash LoadCellLockHash/LoadCellTypeHash return on-chain.
func (s Script) Hash() Hash {
	return Hash(rollupcrypto.CKBBlake2b(s.Marshal()))
}

// MerkleState pairs a root with the count of items committed under it --
// used for both the account SMT and the block SMT inside GlobalState.
type MerkleState struct {
	MerkleRoot Hash
	Count      uint64
}

func (m MerkleState) Marshal() []byte {
	out := make([]byte, 40)
	copy(out[:32], m.MerkleRoot[:])
	binary.LittleEndian.PutUint64(out[32:], m.Count)
	return out
}

func ParseMerkleState(raw []byte) (MerkleState, error) {
	if len(raw) != 40 {
		return MerkleState{}, ckberrors.New(ckberrors.Encoding, "chaintypes: MerkleState length mismatch")
	}
	return MerkleState{
		MerkleRoot: BytesToHash(raw[:32]),
		Count:      binary.LittleEndian.Uint64(raw[32:40]),
	}, nil
}

func putU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func putU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func getU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ckberrors.New(ckberrors.Encoding, "chaintypes: expected 4-byte uint32 field")
	}
	return binary.LittleEndian.Uint32(b), nil
}

func getU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, ckberrors.New(ckberrors.Encoding, "chaintypes: expected 8-byte uint64 field")
	}
	return binary.LittleEndian.Uint64(b), nil
}
