package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// Every cell whose lock-type-hash matches stake/custodian/withdrawal/
// challenge carries a 32-byte rollup-type-hash prefix before its own args
// table (§3 invariant 4); splitArgsPrefix peels that off.
func splitArgsPrefix(args []byte) (Hash, []byte, error) {
	if len(args) < 32 {
		return Hash{}, nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: lock args missing rollup-type-hash prefix")
	}
	return BytesToHash(args[:32]), args[32:], nil
}

// StakeLockArgs is a stake cell's lock args tail (after the rollup-type-
// hash prefix): which block it was posted for, and who owns it.
type StakeLockArgs struct {
	RollupTypeHash  Hash
	StakeBlockNumber uint64
	OwnerLockHash    Hash
}

func ParseStakeLockArgs(args []byte) (*StakeLockArgs, error) {
	rollupHash, rest, err := splitArgsPrefix(args)
	if err != nil {
		return nil, err
	}
	tbl, err := molecule.NewTable(rest)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: StakeLockArgs missing fields")
	}
	numRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	num, err := getU64(numRaw)
	if err != nil {
		return nil, err
	}
	ownerHash, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	return &StakeLockArgs{RollupTypeHash: rollupHash, StakeBlockNumber: num, OwnerLockHash: BytesToHash(ownerHash)}, nil
}

func (a StakeLockArgs) Marshal() []byte {
	body := molecule.BuildTable([][]byte{putU64(a.StakeBlockNumber), a.OwnerLockHash.Bytes()})
	return append(a.RollupTypeHash.Bytes(), body...)
}

// CustodianLockArgs is a custodian cell's lock args tail: which deposit
// produced it (zeroed block hash/number 0 denote "finalized sentinel" per
// §4.3 ViaRevert), and the original deposit lock args for revert matching.
type CustodianLockArgs struct {
	RollupTypeHash    Hash
	DepositBlockHash   Hash
	DepositBlockNumber uint64
	DepositLockArgs    []byte
}

// FinalizedBlockHash and FinalizedBlockNumber are the sentinel values a
// ViaRevert-produced custodian cell must carry (original_source:
// FINALIZED_BLOCK_HASH / FINALIZED_BLOCK_NUMBER).
var FinalizedBlockHash = Hash{}

const FinalizedBlockNumber uint64 = 0

func ParseCustodianLockArgs(args []byte) (*CustodianLockArgs, error) {
	rollupHash, rest, err := splitArgsPrefix(args)
	if err != nil {
		return nil, err
	}
	tbl, err := molecule.NewTable(rest)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 3 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: CustodianLockArgs missing fields")
	}
	blockHash, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	numRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	num, err := getU64(numRaw)
	if err != nil {
		return nil, err
	}
	depositArgs, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	depositArgs, err = molecule.ParseBytes(depositArgs)
	if err != nil {
		return nil, err
	}
	return &CustodianLockArgs{
		RollupTypeHash:     rollupHash,
		DepositBlockHash:   BytesToHash(blockHash),
		DepositBlockNumber: num,
		DepositLockArgs:    depositArgs,
	}, nil
}

func (a CustodianLockArgs) Marshal() []byte {
	body := molecule.BuildTable([][]byte{
		a.DepositBlockHash.Bytes(),
		putU64(a.DepositBlockNumber),
		molecule.BuildBytes(a.DepositLockArgs),
	})
	return append(a.RollupTypeHash.Bytes(), body...)
}

// IsFinalizedSentinel reports whether this custodian cell carries the
// finalized sentinel a ViaRevert unlock must reproduce.
func (a CustodianLockArgs) IsFinalizedSentinel() bool {
	return a.DepositBlockHash == FinalizedBlockHash && a.DepositBlockNumber == FinalizedBlockNumber
}

// DepositLockArgs is a deposit cell's lock args tail.
type DepositLockArgs struct {
	RollupTypeHash Hash
	Layer2Lock     Script
	CancelTimeout  uint64
	RegistryID     uint32
}

func ParseDepositLockArgs(args []byte) (*DepositLockArgs, error) {
	rollupHash, rest, err := splitArgsPrefix(args)
	if err != nil {
		return nil, err
	}
	tbl, err := molecule.NewTable(rest)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 3 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: DepositLockArgs missing fields")
	}
	lockRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	lock, err := ParseScript(lockRaw)
	if err != nil {
		return nil, err
	}
	timeoutRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	timeout, err := getU64(timeoutRaw)
	if err != nil {
		return nil, err
	}
	regRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	reg, err := getU32(regRaw)
	if err != nil {
		return nil, err
	}
	return &DepositLockArgs{RollupTypeHash: rollupHash, Layer2Lock: *lock, CancelTimeout: timeout, RegistryID: reg}, nil
}

// TargetType selects which verifier a challenge resolves through.
type TargetType byte

const (
	TargetTxExecution TargetType = iota
	TargetTxSignature
	TargetWithdrawal
)

// ChallengeTarget names exactly what is being challenged.
type ChallengeTarget struct {
	BlockHash   Hash
	TargetIndex uint32
	TargetType  TargetType
}

func (t ChallengeTarget) Marshal() []byte {
	return molecule.BuildTable([][]byte{t.BlockHash.Bytes(), putU32(t.TargetIndex), {byte(t.TargetType)}})
}

func ParseChallengeTarget(raw []byte) (*ChallengeTarget, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 3 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: ChallengeTarget missing fields")
	}
	blockHash, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	idxRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	idx, err := getU32(idxRaw)
	if err != nil {
		return nil, err
	}
	typeRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	if len(typeRaw) != 1 || typeRaw[0] > byte(TargetWithdrawal) {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: unknown ChallengeTarget type")
	}
	return &ChallengeTarget{BlockHash: BytesToHash(blockHash), TargetIndex: idx, TargetType: TargetType(typeRaw[0])}, nil
}

// ChallengeLockArgs is a challenge cell's lock args tail.
type ChallengeLockArgs struct {
	RollupTypeHash     Hash
	Target             ChallengeTarget
	RewardsReceiverLock Script
}

func ParseChallengeLockArgs(args []byte) (*ChallengeLockArgs, error) {
	rollupHash, rest, err := splitArgsPrefix(args)
	if err != nil {
		return nil, err
	}
	tbl, err := molecule.NewTable(rest)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: ChallengeLockArgs missing fields")
	}
	targetRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	target, err := ParseChallengeTarget(targetRaw)
	if err != nil {
		return nil, err
	}
	lockRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	lock, err := ParseScript(lockRaw)
	if err != nil {
		return nil, err
	}
	return &ChallengeLockArgs{RollupTypeHash: rollupHash, Target: *target, RewardsReceiverLock: *lock}, nil
}

func (a ChallengeLockArgs) Marshal() []byte {
	body := molecule.BuildTable([][]byte{a.Target.Marshal(), a.RewardsReceiverLock.Marshal()})
	return append(a.RollupTypeHash.Bytes(), body...)
}
