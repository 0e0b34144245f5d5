package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// UnlockWithdrawalTag identifies which of the withdrawal lock's three
// unlock paths a spending transaction uses (§4.3).
type UnlockWithdrawalTag uint32

const (
	UnlockViaFinalize UnlockWithdrawalTag = iota
	UnlockViaRevert
	UnlockViaTrade
)

// UnlockWithdrawalWitness is the lazy union a withdrawal cell's own lock
// field carries (§9: lazy sum-type readers).
type UnlockWithdrawalWitness struct {
	Tag  UnlockWithdrawalTag
	Body []byte
}

func ParseUnlockWithdrawalWitness(raw []byte) (*UnlockWithdrawalWitness, error) {
	u, err := molecule.ParseUnion(raw)
	if err != nil {
		return nil, err
	}
	if u.Tag > uint32(UnlockViaTrade) {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: unknown UnlockWithdrawalWitness tag")
	}
	return &UnlockWithdrawalWitness{Tag: UnlockWithdrawalTag(u.Tag), Body: u.Body}, nil
}

// UnlockViaFinalizeWitness has no payload: the withdrawal lock authorizes
// spending once the rollup cell's last-finalized block number has reached
// this cell's withdrawal block number and an input carries the cell's
// owner-lock-hash, both checked against the transaction directly.
type UnlockViaFinalizeWitness struct{}

func (w *UnlockWithdrawalWitness) AsViaFinalize() (*UnlockViaFinalizeWitness, error) {
	if w.Tag != UnlockViaFinalize {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: witness is not ViaFinalize")
	}
	return &UnlockViaFinalizeWitness{}, nil
}

// UnlockViaRevertWitness authorizes spending a withdrawal cell whose
// originating block was reverted: the rollup cell's output side must carry
// a RollupSubmitBlock action listing this cell's block hash among its
// reverted blocks, and CustodianLockHash names which output cell is the
// replacement finalized-sentinel custodian cell standing in for it.
type UnlockViaRevertWitness struct {
	CustodianLockHash Hash
}

func (w *UnlockWithdrawalWitness) AsViaRevert() (*UnlockViaRevertWitness, error) {
	if w.Tag != UnlockViaRevert {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: witness is not ViaRevert")
	}
	if len(w.Body) != 32 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: ViaRevert witness must carry a 32-byte custodian lock hash")
	}
	return &UnlockViaRevertWitness{CustodianLockHash: BytesToHash(w.Body)}, nil
}

// UnlockViaTradeWitness authorizes a secondary-market transfer: the
// transaction must pay at least SellCapacity (and, when set, SellAmount of
// the declared SUDT) to an output locked by PaymentLockHash, and the
// replacement withdrawal cell names OwnerLock's hash as both its owner and
// payment lock hash. No signature is checked on this path.
type UnlockViaTradeWitness struct {
	OwnerLock Script // the new owner's lock, replacing OwnerLockHash going forward
}

func (w *UnlockWithdrawalWitness) AsViaTrade() (*UnlockViaTradeWitness, error) {
	if w.Tag != UnlockViaTrade {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: witness is not ViaTrade")
	}
	lock, err := ParseScript(w.Body)
	if err != nil {
		return nil, err
	}
	return &UnlockViaTradeWitness{OwnerLock: *lock}, nil
}
