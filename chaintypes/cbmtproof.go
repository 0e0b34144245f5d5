package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// CBMTProof is a complete-binary-Merkle-tree membership proof in
// indices+lemmas form (§4.1.5, §6.bis): Indices names which leaves are
// proven, Lemmas carries the sibling hashes the verifier folds upward with,
// in tree-traversal order. The cbmt package supplies the verifier; this
// type only carries the witness bytes.
type CBMTProof struct {
	Indices []uint32
	Lemmas  []Hash
}

func (p CBMTProof) Marshal() []byte {
	idx := make([]byte, 0, 4*len(p.Indices))
	for _, i := range p.Indices {
		idx = append(idx, putU32(i)...)
	}
	return molecule.BuildTable([][]byte{
		molecule.BuildBytes(idx),
		hashVecMarshal(p.Lemmas),
	})
}

func ParseCBMTProof(raw []byte) (*CBMTProof, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: CBMTProof missing fields")
	}
	idxRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	idxBytes, err := molecule.ParseBytes(idxRaw)
	if err != nil {
		return nil, err
	}
	if len(idxBytes)%4 != 0 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: CBMTProof indices malformed")
	}
	indices := make([]uint32, len(idxBytes)/4)
	for i := range indices {
		v, err := getU32(idxBytes[i*4 : i*4+4])
		if err != nil {
			return nil, err
		}
		indices[i] = v
	}
	lemmasRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	lemmas, err := parseHashVec(lemmasRaw)
	if err != nil {
		return nil, err
	}
	return &CBMTProof{Indices: indices, Lemmas: lemmas}, nil
}

// WithdrawalIndexRangeKind distinguishes "every withdrawal in the block" from
// an explicit inclusive index range (§4.1.5). The normalization rule
// (SPEC_FULL.md §6.bis) forbids an inclusive range whose end equals the
// block's last withdrawal index -- that case must be encoded as All.
type WithdrawalIndexRangeKind byte

const (
	WithdrawalRangeAll WithdrawalIndexRangeKind = iota
	WithdrawalRangeInclusive
)

type WithdrawalIndexRange struct {
	Kind  WithdrawalIndexRangeKind
	Start uint32 // valid only when Kind == WithdrawalRangeInclusive
	End   uint32
}

func (r WithdrawalIndexRange) Marshal() []byte {
	return append([]byte{byte(r.Kind)}, append(putU32(r.Start), putU32(r.End)...)...)
}

func ParseWithdrawalIndexRange(raw []byte) (WithdrawalIndexRange, error) {
	if len(raw) != 9 {
		return WithdrawalIndexRange{}, ckberrors.New(ckberrors.Encoding, "chaintypes: WithdrawalIndexRange length mismatch")
	}
	kind := WithdrawalIndexRangeKind(raw[0])
	if kind != WithdrawalRangeAll && kind != WithdrawalRangeInclusive {
		return WithdrawalIndexRange{}, ckberrors.New(ckberrors.Encoding, "chaintypes: unknown WithdrawalIndexRange kind")
	}
	start, err := getU32(raw[1:5])
	if err != nil {
		return WithdrawalIndexRange{}, err
	}
	end, err := getU32(raw[5:9])
	if err != nil {
		return WithdrawalIndexRange{}, err
	}
	return WithdrawalIndexRange{Kind: kind, Start: start, End: end}, nil
}

// RawL2BlockWithdrawals carries the withdrawal requests of a single
// finalized block, plus a CBMT proof tying IndexRange's requests to that
// block's withdrawal-witness-root (§4.1.5).
type RawL2BlockWithdrawals struct {
	BlockNumber uint64
	IndexRange  WithdrawalIndexRange
	Withdrawals []WithdrawalRequest
	Proof       CBMTProof
}

func (w RawL2BlockWithdrawals) Marshal() []byte {
	wds := make([][]byte, len(w.Withdrawals))
	for i, r := range w.Withdrawals {
		wds[i] = r.Marshal()
	}
	return molecule.BuildTable([][]byte{
		putU64(w.BlockNumber),
		w.IndexRange.Marshal(),
		molecule.BuildTable(wds),
		w.Proof.Marshal(),
	})
}

func ParseRawL2BlockWithdrawals(raw []byte) (*RawL2BlockWithdrawals, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 4 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: RawL2BlockWithdrawals missing fields")
	}
	numRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	num, err := getU64(numRaw)
	if err != nil {
		return nil, err
	}
	rangeRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	rng, err := ParseWithdrawalIndexRange(rangeRaw)
	if err != nil {
		return nil, err
	}
	wdsRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	vec, err := molecule.NewVector(wdsRaw)
	if err != nil {
		return nil, err
	}
	wds := make([]WithdrawalRequest, vec.Len())
	for i := 0; i < vec.Len(); i++ {
		item, err := vec.Item(i)
		if err != nil {
			return nil, err
		}
		wd, err := ParseWithdrawalRequest(item)
		if err != nil {
			return nil, err
		}
		wds[i] = *wd
	}
	proofRaw, err := tbl.Field(3)
	if err != nil {
		return nil, err
	}
	proof, err := ParseCBMTProof(proofRaw)
	if err != nil {
		return nil, err
	}
	return &RawL2BlockWithdrawals{BlockNumber: num, IndexRange: rng, Withdrawals: wds, Proof: *proof}, nil
}
