package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// Status is GlobalState's fraud-challenge phase.
type Status byte

const (
	StatusRunning Status = 0
	StatusHalting Status = 1
)

// WithdrawalCursorIndexKind distinguishes the two sentinels from a real
// index -- recovered from original_source's gw_types::core::
// WithdrawalCursorIndex, which is a genuine 3-variant sum type, not a
// numeric index with two reserved values (SPEC_FULL.md §5).
type WithdrawalCursorIndexKind byte

const (
	NoWithdrawal WithdrawalCursorIndexKind = iota
	AllWithdrawals
	WithdrawalIndex
)

// WithdrawalCursorIndex is the per-block component of a finalization
// cursor: either "before any withdrawal", "after all withdrawals", or a
// concrete withdrawal position.
type WithdrawalCursorIndex struct {
	Kind  WithdrawalCursorIndexKind
	Index uint32 // valid only when Kind == WithdrawalIndex
}

// Compare orders a against b: NoWithdrawal < Index(i) < AllWithdrawals,
// and Index(i) < Index(j) iff i < j. This ordering is what makes
// (block-number, index) cursors comparable lexicographically (§3 invariant
// 6, §4.1.5, §8 "finalize-withdrawal monotonicity").
func (a WithdrawalCursorIndex) Compare(b WithdrawalCursorIndex) int {
	rank := func(k WithdrawalCursorIndex) (int, uint32) {
		switch k.Kind {
		case NoWithdrawal:
			return 0, 0
		case WithdrawalIndex:
			return 1, k.Index
		case AllWithdrawals:
			return 2, 0
		default:
			return -1, 0
		}
	}
	ra, ia := rank(a)
	rb, ib := rank(b)
	if ra != rb {
		return ra - rb
	}
	if ra != 1 {
		return 0
	}
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

func (a WithdrawalCursorIndex) Marshal() []byte {
	return append([]byte{byte(a.Kind)}, putU32(a.Index)...)
}

func ParseWithdrawalCursorIndex(raw []byte) (WithdrawalCursorIndex, error) {
	if len(raw) != 5 {
		return WithdrawalCursorIndex{}, ckberrors.New(ckberrors.Encoding, "chaintypes: WithdrawalCursorIndex length mismatch")
	}
	kind := WithdrawalCursorIndexKind(raw[0])
	if kind > WithdrawalIndex {
		return WithdrawalCursorIndex{}, ckberrors.New(ckberrors.Encoding, "chaintypes: unknown WithdrawalCursorIndex kind")
	}
	idx, err := getU32(raw[1:])
	if err != nil {
		return WithdrawalCursorIndex{}, err
	}
	return WithdrawalCursorIndex{Kind: kind, Index: idx}, nil
}

// WithdrawalCursor is the last-finalized-withdrawal marker GlobalState
// carries once version 2 is active.
type WithdrawalCursor struct {
	BlockNumber uint64
	Index       WithdrawalCursorIndex
}

// Compare orders cursors lexicographically by (BlockNumber, Index).
func (c WithdrawalCursor) Compare(o WithdrawalCursor) int {
	switch {
	case c.BlockNumber < o.BlockNumber:
		return -1
	case c.BlockNumber > o.BlockNumber:
		return 1
	default:
		return c.Index.Compare(o.Index)
	}
}

func (c WithdrawalCursor) Marshal() []byte {
	return append(putU64(c.BlockNumber), c.Index.Marshal()...)
}

func ParseWithdrawalCursor(raw []byte) (WithdrawalCursor, error) {
	if len(raw) != 13 {
		return WithdrawalCursor{}, ckberrors.New(ckberrors.Encoding, "chaintypes: WithdrawalCursor length mismatch")
	}
	n, err := getU64(raw[:8])
	if err != nil {
		return WithdrawalCursor{}, err
	}
	idx, err := ParseWithdrawalCursorIndex(raw[8:])
	if err != nil {
		return WithdrawalCursor{}, err
	}
	return WithdrawalCursor{BlockNumber: n, Index: idx}, nil
}

// GlobalState is the rollup cell's entire data payload (spec §3).
type GlobalState struct {
	RollupConfigHash               Hash
	Account                        MerkleState
	Block                          MerkleState
	RevertedBlockRoot               Hash
	LastFinalizedBlockNumber        uint64
	Status                          Status
	Version                         uint8
	TipBlockHash                    Hash
	TipBlockTimestamp               uint64 // version >= 1 only
	LastFinalizedWithdrawalCursor   WithdrawalCursor // version == 2 only
}

const globalStateFieldCount = 9

func (g GlobalState) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		g.RollupConfigHash.Bytes(),
		g.Account.Marshal(),
		g.Block.Marshal(),
		g.RevertedBlockRoot.Bytes(),
		putU64(g.LastFinalizedBlockNumber),
		{byte(g.Status)},
		{g.Version},
		g.TipBlockHash.Bytes(),
		append(putU64(g.TipBlockTimestamp), g.LastFinalizedWithdrawalCursor.Marshal()...),
	})
}

func ParseGlobalState(raw []byte) (*GlobalState, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < globalStateFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: GlobalState missing fields")
	}
	rollupConfigHash, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	accountRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	account, err := ParseMerkleState(accountRaw)
	if err != nil {
		return nil, err
	}
	blockRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	block, err := ParseMerkleState(blockRaw)
	if err != nil {
		return nil, err
	}
	revertedRoot, err := tbl.Field(3)
	if err != nil {
		return nil, err
	}
	lastFinRaw, err := tbl.Field(4)
	if err != nil {
		return nil, err
	}
	lastFin, err := getU64(lastFinRaw)
	if err != nil {
		return nil, err
	}
	statusRaw, err := tbl.Field(5)
	if err != nil {
		return nil, err
	}
	versionRaw, err := tbl.Field(6)
	if err != nil {
		return nil, err
	}
	tipHash, err := tbl.Field(7)
	if err != nil {
		return nil, err
	}
	tail, err := tbl.Field(8)
	if err != nil {
		return nil, err
	}
	if len(statusRaw) != 1 || len(versionRaw) != 1 || len(revertedRoot) != 32 || len(tipHash) != 32 || len(tail) < 8 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: GlobalState field length mismatch")
	}
	tipTs, err := getU64(tail[:8])
	if err != nil {
		return nil, err
	}
	var cursor WithdrawalCursor
	if len(tail) > 8 {
		cursor, err = ParseWithdrawalCursor(tail[8:])
		if err != nil {
			return nil, err
		}
	}
	return &GlobalState{
		RollupConfigHash:             BytesToHash(rollupConfigHash),
		Account:                      account,
		Block:                        block,
		RevertedBlockRoot:            BytesToHash(revertedRoot),
		LastFinalizedBlockNumber:     lastFin,
		Status:                       Status(statusRaw[0]),
		Version:                      versionRaw[0],
		TipBlockHash:                 BytesToHash(tipHash),
		TipBlockTimestamp:            tipTs,
		LastFinalizedWithdrawalCursor: cursor,
	}, nil
}

// Equal reports whether g and o are byte-identical once marshaled -- used
// throughout validator/ to enforce "post-state differs from prev only in
// field X" rules via a copy-and-overwrite-then-compare pattern.
func (g GlobalState) Equal(o GlobalState) bool {
	a, b := g.Marshal(), o.Marshal()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
