package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// CCTxContextWitness is the lock-witness a challenge cell's unlock carries
// for both the TxExecution and TxSignature cancel targets. original_source
// models these as two distinct tables (VerifyTransactionWitness and
// VerifyTransactionSignatureWitness) that differ only in name; every field
// verify_tx_context actually reads is identical between them, so this repo
// carries one shape for both (§4.2 TxContext check).
type CCTxContextWitness struct {
	L2Tx         L2Transaction
	RawBlock     RawL2Block
	KVStateProof []byte
	TxProof      []byte
	Scripts      []Script
	AccountCount uint32
	KVState      []KVPair
}

func (w CCTxContextWitness) Marshal() []byte {
	scripts := make([][]byte, len(w.Scripts))
	for i, s := range w.Scripts {
		scripts[i] = s.Marshal()
	}
	kv := make([]byte, 0, 64*len(w.KVState))
	for _, p := range w.KVState {
		kv = append(kv, p.Key.Bytes()...)
		kv = append(kv, p.Value.Bytes()...)
	}
	return molecule.BuildTable([][]byte{
		w.L2Tx.Marshal(),
		w.RawBlock.Marshal(),
		molecule.BuildBytes(w.KVStateProof),
		molecule.BuildBytes(w.TxProof),
		molecule.BuildTable(scripts),
		putU32(w.AccountCount),
		append(putU32(uint32(len(w.KVState))), kv...),
	})
}

func ParseCCTxContextWitness(raw []byte) (*CCTxContextWitness, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 7 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: CCTxContextWitness missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	txRaw, err := field(0)
	if err != nil {
		return nil, err
	}
	tx, err := ParseL2Transaction(txRaw)
	if err != nil {
		return nil, err
	}
	blockRaw, err := field(1)
	if err != nil {
		return nil, err
	}
	block, err := ParseRawL2Block(blockRaw)
	if err != nil {
		return nil, err
	}
	kvProofRaw, err := field(2)
	if err != nil {
		return nil, err
	}
	kvProof, err := molecule.ParseBytes(kvProofRaw)
	if err != nil {
		return nil, err
	}
	txProofRaw, err := field(3)
	if err != nil {
		return nil, err
	}
	txProof, err := molecule.ParseBytes(txProofRaw)
	if err != nil {
		return nil, err
	}
	scriptsRaw, err := field(4)
	if err != nil {
		return nil, err
	}
	scriptsVec, err := molecule.NewVector(scriptsRaw)
	if err != nil {
		return nil, err
	}
	scripts := make([]Script, scriptsVec.Len())
	for i := 0; i < scriptsVec.Len(); i++ {
		item, err := scriptsVec.Item(i)
		if err != nil {
			return nil, err
		}
		s, err := ParseScript(item)
		if err != nil {
			return nil, err
		}
		scripts[i] = *s
	}
	accountCountRaw, err := field(5)
	if err != nil {
		return nil, err
	}
	accountCount, err := getU32(accountCountRaw)
	if err != nil {
		return nil, err
	}
	kvRaw, err := field(6)
	if err != nil {
		return nil, err
	}
	kvFixVec, err := molecule.NewFixVec(kvRaw, 64)
	if err != nil {
		return nil, err
	}
	kv := make([]KVPair, kvFixVec.Len())
	for i := 0; i < kvFixVec.Len(); i++ {
		item, err := kvFixVec.Item(i)
		if err != nil {
			return nil, err
		}
		kv[i] = KVPair{Key: BytesToHash(item[:32]), Value: BytesToHash(item[32:])}
	}
	return &CCTxContextWitness{
		L2Tx:         *tx,
		RawBlock:     *block,
		KVStateProof: kvProof,
		TxProof:      txProof,
		Scripts:      scripts,
		AccountCount: accountCount,
		KVState:      kv,
	}, nil
}

// CCWithdrawalWitness is the lock-witness a challenge cell's unlock carries
// for the Withdrawal cancel target: the challenged withdrawal request, the
// sender and owner scripts it claims, the block it was submitted in, and a
// CBMT membership proof against that block's withdrawal-witness-root (§4.2
// Withdrawal target).
type CCWithdrawalWitness struct {
	Withdrawal      WithdrawalRequest
	Sender          Script
	OwnerLock       Script
	RawBlock        RawL2Block
	WithdrawalProof CBMTProof
}

func (w CCWithdrawalWitness) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		w.Withdrawal.Marshal(),
		w.Sender.Marshal(),
		w.OwnerLock.Marshal(),
		w.RawBlock.Marshal(),
		w.WithdrawalProof.Marshal(),
	})
}

func ParseCCWithdrawalWitness(raw []byte) (*CCWithdrawalWitness, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 5 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: CCWithdrawalWitness missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	wdRaw, err := field(0)
	if err != nil {
		return nil, err
	}
	wd, err := ParseWithdrawalRequest(wdRaw)
	if err != nil {
		return nil, err
	}
	senderRaw, err := field(1)
	if err != nil {
		return nil, err
	}
	sender, err := ParseScript(senderRaw)
	if err != nil {
		return nil, err
	}
	ownerRaw, err := field(2)
	if err != nil {
		return nil, err
	}
	owner, err := ParseScript(ownerRaw)
	if err != nil {
		return nil, err
	}
	blockRaw, err := field(3)
	if err != nil {
		return nil, err
	}
	block, err := ParseRawL2Block(blockRaw)
	if err != nil {
		return nil, err
	}
	proofRaw, err := field(4)
	if err != nil {
		return nil, err
	}
	proof, err := ParseCBMTProof(proofRaw)
	if err != nil {
		return nil, err
	}
	return &CCWithdrawalWitness{
		Withdrawal:      *wd,
		Sender:          *sender,
		OwnerLock:       *owner,
		RawBlock:        *block,
		WithdrawalProof: *proof,
	}, nil
}
