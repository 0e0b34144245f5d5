package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// SubmitTransactions is the per-block commitment to its transaction list.
type SubmitTransactions struct {
	TxWitnessRoot       Hash
	TxCount             uint32
	PrevStateCheckpoint Hash
}

func (s SubmitTransactions) Marshal() []byte {
	out := append(append([]byte{}, s.TxWitnessRoot.Bytes()...), putU32(s.TxCount)...)
	return append(out, s.PrevStateCheckpoint.Bytes()...)
}

func ParseSubmitTransactions(raw []byte) (SubmitTransactions, error) {
	if len(raw) != 68 {
		return SubmitTransactions{}, ckberrors.New(ckberrors.Encoding, "chaintypes: SubmitTransactions length mismatch")
	}
	count, err := getU32(raw[32:36])
	if err != nil {
		return SubmitTransactions{}, err
	}
	return SubmitTransactions{
		TxWitnessRoot:       BytesToHash(raw[:32]),
		TxCount:             count,
		PrevStateCheckpoint: BytesToHash(raw[36:68]),
	}, nil
}

// SubmitWithdrawals is the per-block commitment to its withdrawal list.
type SubmitWithdrawals struct {
	WithdrawalWitnessRoot Hash
	WithdrawalCount       uint32
}

func (s SubmitWithdrawals) Marshal() []byte {
	return append(append([]byte{}, s.WithdrawalWitnessRoot.Bytes()...), putU32(s.WithdrawalCount)...)
}

func ParseSubmitWithdrawals(raw []byte) (SubmitWithdrawals, error) {
	if len(raw) != 36 {
		return SubmitWithdrawals{}, ckberrors.New(ckberrors.Encoding, "chaintypes: SubmitWithdrawals length mismatch")
	}
	count, err := getU32(raw[32:36])
	if err != nil {
		return SubmitWithdrawals{}, err
	}
	return SubmitWithdrawals{WithdrawalWitnessRoot: BytesToHash(raw[:32]), WithdrawalCount: count}, nil
}

// RawL2Block is a block's header: everything except the transaction and
// withdrawal bodies and the KV-state witness (spec §3).
type RawL2Block struct {
	Number              uint64
	ParentHash          Hash
	Timestamp           uint64
	BlockProducer       []byte // opaque registry address bytes
	PrevAccountRoot     Hash
	PostAccountRoot     Hash
	SubmitTransactions  SubmitTransactions
	SubmitWithdrawals   SubmitWithdrawals
	StateCheckpointList []Hash
}

const rawL2BlockFieldCount = 9

func (b RawL2Block) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		putU64(b.Number),
		b.ParentHash.Bytes(),
		putU64(b.Timestamp),
		molecule.BuildBytes(b.BlockProducer),
		b.PrevAccountRoot.Bytes(),
		b.PostAccountRoot.Bytes(),
		b.SubmitTransactions.Marshal(),
		b.SubmitWithdrawals.Marshal(),
		hashVecMarshal(b.StateCheckpointList),
	})
}

// Hash is this block's identity hash, computed over its raw header bytes
// only (spec §3: "Each block's hash is determined by its raw-header
// bytes").
func (b RawL2Block) Hash() Hash {
	return rollupcrypto.CKBBlake2b(b.Marshal())
}

func ParseRawL2Block(raw []byte) (*RawL2Block, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < rawL2BlockFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: RawL2Block missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	numRaw, err := field(0)
	if err != nil {
		return nil, err
	}
	num, err := getU64(numRaw)
	if err != nil {
		return nil, err
	}
	parentHash, err := field(1)
	if err != nil {
		return nil, err
	}
	tsRaw, err := field(2)
	if err != nil {
		return nil, err
	}
	ts, err := getU64(tsRaw)
	if err != nil {
		return nil, err
	}
	producerRaw, err := field(3)
	if err != nil {
		return nil, err
	}
	producer, err := molecule.ParseBytes(producerRaw)
	if err != nil {
		return nil, err
	}
	prevAccRoot, err := field(4)
	if err != nil {
		return nil, err
	}
	postAccRoot, err := field(5)
	if err != nil {
		return nil, err
	}
	submitTxRaw, err := field(6)
	if err != nil {
		return nil, err
	}
	submitTx, err := ParseSubmitTransactions(submitTxRaw)
	if err != nil {
		return nil, err
	}
	submitWdRaw, err := field(7)
	if err != nil {
		return nil, err
	}
	submitWd, err := ParseSubmitWithdrawals(submitWdRaw)
	if err != nil {
		return nil, err
	}
	checkpointsRaw, err := field(8)
	if err != nil {
		return nil, err
	}
	checkpoints, err := parseHashVec(checkpointsRaw)
	if err != nil {
		return nil, err
	}
	return &RawL2Block{
		Number:              num,
		ParentHash:          BytesToHash(parentHash),
		Timestamp:           ts,
		BlockProducer:       producer,
		PrevAccountRoot:     BytesToHash(prevAccRoot),
		PostAccountRoot:     BytesToHash(postAccRoot),
		SubmitTransactions:  submitTx,
		SubmitWithdrawals:   submitWd,
		StateCheckpointList: checkpoints,
	}, nil
}

// KVPair is one entry of a block's KV-state witness.
type KVPair struct {
	Key   Hash
	Value Hash
}

// L2Block is a full block as carried in a submit-block witness.
type L2Block struct {
	Raw          RawL2Block
	Transactions []L2Transaction
	Withdrawals  []WithdrawalRequest
	KVState      []KVPair
	KVStateProof []byte
}

// StateCheckpoint is the commitment submit-transactions/TxContext checks
// tx execution against: CKBBlake2b(kv-root ‖ account-count).
func StateCheckpoint(kvRoot Hash, accountCount uint32) Hash {
	return rollupcrypto.CKBBlake2b(kvRoot.Bytes(), putU32(accountCount))
}
