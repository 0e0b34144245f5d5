package chaintypes

import (
	"encoding/binary"

	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/holiman/uint256"
)

// OwnerLockKind distinguishes a withdrawal cell with no packed owner lock
// from one whose trailing bytes carry a plain owner lock or a v1-deposit
// owner lock. Recovered from original_source/contracts/gw-utils/src/
// withdrawal.rs::OwnerLock (SPEC_FULL.md Open-Question #3): the trailing
// flag byte tags the variant but does not change ViaRevert's acceptance.
type OwnerLockKind int

const (
	OwnerLockNone OwnerLockKind = iota
	OwnerLockOwner
	OwnerLockV1Deposit
)

// OwnerLock is the optional packed lock a withdrawal cell's args may carry
// after its fixed WithdrawalLockArgs table.
type OwnerLock struct {
	Kind OwnerLockKind
	Lock Script // valid only when Kind != OwnerLockNone
}

// WithdrawalLockArgs is a withdrawal cell's lock args tail (spec §3, §4.3).
type WithdrawalLockArgs struct {
	RollupTypeHash        Hash
	WithdrawalBlockHash   Hash
	WithdrawalBlockNumber uint64
	AccountScriptHash     Hash
	OwnerLockHash         Hash
	SudtScriptHash        Hash
	SellAmount            *uint256.Int // u128, widened
	SellCapacity          uint64
	PaymentLockHash       Hash
	OwnerLock             OwnerLock
}

const withdrawalLockArgsFieldCount = 8

func (a WithdrawalLockArgs) coreTableMarshal() []byte {
	var sellAmount [16]byte
	if a.SellAmount != nil {
		b := a.SellAmount.Bytes()
		copy(sellAmount[16-len(b):], b)
	}
	return molecule.BuildTable([][]byte{
		a.WithdrawalBlockHash.Bytes(),
		putU64(a.WithdrawalBlockNumber),
		a.AccountScriptHash.Bytes(),
		a.OwnerLockHash.Bytes(),
		a.SudtScriptHash.Bytes(),
		sellAmount[:],
		putU64(a.SellCapacity),
		a.PaymentLockHash.Bytes(),
	})
}

// Marshal reproduces the on-chain byte layout: rollup-type-hash ‖
// WithdrawalLockArgs ‖ optional { u32-BE owner-lock-len ‖ owner-lock-bytes
// ‖ optional 1-byte v1-deposit-flag }. Note the owner-lock length prefix is
// big-endian, unlike every molecule u32 elsewhere -- this tail is a raw
// append outside the molecule schema, matching original_source verbatim.
func (a WithdrawalLockArgs) Marshal() []byte {
	out := append(a.RollupTypeHash.Bytes(), a.coreTableMarshal()...)
	if a.OwnerLock.Kind == OwnerLockNone {
		return out
	}
	lockBytes := a.OwnerLock.Lock.Marshal()
	lenPrefix := make([]byte, 4)
	binary.BigEndian.PutUint32(lenPrefix, uint32(len(lockBytes)))
	out = append(out, lenPrefix...)
	out = append(out, lockBytes...)
	if a.OwnerLock.Kind == OwnerLockV1Deposit {
		out = append(out, 1)
	}
	return out
}

// ParseWithdrawalLockArgs parses a withdrawal cell's full lock args,
// including the optional packed owner lock. When an owner lock is present
// its hash must equal OwnerLockHash; callers that only need the fixed
// fields may ignore OwnerLock.
func ParseWithdrawalLockArgs(args []byte) (*WithdrawalLockArgs, error) {
	rollupHash, rest, err := splitArgsPrefix(args)
	if err != nil {
		return nil, err
	}
	tbl, err := molecule.NewTable(rest)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < withdrawalLockArgsFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: WithdrawalLockArgs missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	blockHash, err := field(0)
	if err != nil {
		return nil, err
	}
	numRaw, err := field(1)
	if err != nil {
		return nil, err
	}
	num, err := getU64(numRaw)
	if err != nil {
		return nil, err
	}
	accountHash, err := field(2)
	if err != nil {
		return nil, err
	}
	ownerHash, err := field(3)
	if err != nil {
		return nil, err
	}
	sudtHash, err := field(4)
	if err != nil {
		return nil, err
	}
	sellAmountRaw, err := field(5)
	if err != nil {
		return nil, err
	}
	if len(sellAmountRaw) != 16 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: sell-amount must be 16 bytes")
	}
	sellCapRaw, err := field(6)
	if err != nil {
		return nil, err
	}
	sellCap, err := getU64(sellCapRaw)
	if err != nil {
		return nil, err
	}
	paymentHash, err := field(7)
	if err != nil {
		return nil, err
	}

	result := &WithdrawalLockArgs{
		RollupTypeHash:        rollupHash,
		WithdrawalBlockHash:   BytesToHash(blockHash),
		WithdrawalBlockNumber: num,
		AccountScriptHash:     BytesToHash(accountHash),
		OwnerLockHash:         BytesToHash(ownerHash),
		SudtScriptHash:        BytesToHash(sudtHash),
		SellAmount:            new(uint256.Int).SetBytes(sellAmountRaw),
		SellCapacity:          sellCap,
		PaymentLockHash:       BytesToHash(paymentHash),
	}

	// The core table's total encoded length lets us find where the raw
	// (non-molecule) owner-lock tail begins within rest.
	coreLen := len(result.coreTableMarshal())
	tail := rest[coreLen:]
	if len(tail) == 0 {
		return result, nil
	}
	if len(tail) < 4 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: owner-lock length prefix truncated")
	}
	ownerLockLen := binary.BigEndian.Uint32(tail[:4])
	tail = tail[4:]
	if uint32(len(tail)) < ownerLockLen {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: owner-lock bytes truncated")
	}
	ownerLockBytes := tail[:ownerLockLen]
	lock, err := ParseScript(ownerLockBytes)
	if err != nil {
		return nil, err
	}
	if lock.Hash() != result.OwnerLockHash {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: packed owner lock does not match owner-lock-hash")
	}
	rest2 := tail[ownerLockLen:]
	kind := OwnerLockOwner
	if len(rest2) == 1 && rest2[0] == 1 {
		kind = OwnerLockV1Deposit
	}
	result.OwnerLock = OwnerLock{Kind: kind, Lock: *lock}
	return result, nil
}
