package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
	"github.com/holiman/uint256"
)

// RawWithdrawalRequest is the unsigned half of a block withdrawal entry --
// the fields an EIP-712 Withdrawal message is built from (§4.2 Withdrawal
// target, §4.4).
type RawWithdrawalRequest struct {
	Nonce             uint32
	ChainID           uint64
	Fee               uint64
	Capacity          uint64       // ckb-capacity
	Amount            *uint256.Int // udt-amount, u128
	SudtScriptHash    Hash
	AccountScriptHash Hash
	OwnerLockHash     Hash
	Layer1OwnerLock   Script
}

const rawWithdrawalRequestFieldCount = 9

func (r RawWithdrawalRequest) Marshal() []byte {
	var amount [16]byte
	if r.Amount != nil {
		b := r.Amount.Bytes()
		copy(amount[16-len(b):], b)
	}
	return molecule.BuildTable([][]byte{
		putU32(r.Nonce),
		putU64(r.ChainID),
		putU64(r.Fee),
		putU64(r.Capacity),
		amount[:],
		r.SudtScriptHash.Bytes(),
		r.AccountScriptHash.Bytes(),
		r.OwnerLockHash.Bytes(),
		r.Layer1OwnerLock.Marshal(),
	})
}

func ParseRawWithdrawalRequest(raw []byte) (*RawWithdrawalRequest, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < rawWithdrawalRequestFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: RawWithdrawalRequest missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	nonceRaw, err := field(0)
	if err != nil {
		return nil, err
	}
	nonce, err := getU32(nonceRaw)
	if err != nil {
		return nil, err
	}
	chainIDRaw, err := field(1)
	if err != nil {
		return nil, err
	}
	chainID, err := getU64(chainIDRaw)
	if err != nil {
		return nil, err
	}
	feeRaw, err := field(2)
	if err != nil {
		return nil, err
	}
	fee, err := getU64(feeRaw)
	if err != nil {
		return nil, err
	}
	capRaw, err := field(3)
	if err != nil {
		return nil, err
	}
	cap, err := getU64(capRaw)
	if err != nil {
		return nil, err
	}
	amountRaw, err := field(4)
	if err != nil {
		return nil, err
	}
	if len(amountRaw) != 16 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: RawWithdrawalRequest amount must be 16 bytes")
	}
	sudtHash, err := field(5)
	if err != nil {
		return nil, err
	}
	accountHash, err := field(6)
	if err != nil {
		return nil, err
	}
	ownerHash, err := field(7)
	if err != nil {
		return nil, err
	}
	lockRaw, err := field(8)
	if err != nil {
		return nil, err
	}
	lock, err := ParseScript(lockRaw)
	if err != nil {
		return nil, err
	}
	return &RawWithdrawalRequest{
		Nonce:             nonce,
		ChainID:           chainID,
		Fee:               fee,
		Capacity:          cap,
		Amount:            new(uint256.Int).SetBytes(amountRaw),
		SudtScriptHash:    BytesToHash(sudtHash),
		AccountScriptHash: BytesToHash(accountHash),
		OwnerLockHash:     BytesToHash(ownerHash),
		Layer1OwnerLock:   *lock,
	}, nil
}

// ToEIP712 builds the EIP-712 Withdrawal message this request's signature
// must cover (original_source: Withdrawal::from_withdrawal_request).
func (r RawWithdrawalRequest) ToEIP712() rollupcrypto.Withdrawal {
	hashType := "data"
	if r.Layer1OwnerLock.HashType == HashTypeType {
		hashType = "type"
	}
	return rollupcrypto.Withdrawal{
		AccountScriptHash: r.AccountScriptHash,
		Nonce:             r.Nonce,
		ChainID:           r.ChainID,
		Fee:               r.Fee,
		Layer1OwnerLock: rollupcrypto.Script{
			CodeHash: r.Layer1OwnerLock.CodeHash,
			HashType: hashType,
			Args:     r.Layer1OwnerLock.Args,
		},
		Withdraw: rollupcrypto.WithdrawalAsset{
			CKBCapacity:   r.Capacity,
			UDTAmount:     r.Amount.ToBig(),
			UDTScriptHash: r.SudtScriptHash,
		},
	}
}

// WithdrawalRequest pairs a raw request with the signature over its
// EIP-712 digest.
type WithdrawalRequest struct {
	Raw       RawWithdrawalRequest
	Signature rollupcrypto.RecoverableSignature
}

func (w WithdrawalRequest) Marshal() []byte {
	return molecule.BuildTable([][]byte{w.Raw.Marshal(), w.Signature[:]})
}

func ParseWithdrawalRequest(raw []byte) (*WithdrawalRequest, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: WithdrawalRequest missing fields")
	}
	rawReq, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	req, err := ParseRawWithdrawalRequest(rawReq)
	if err != nil {
		return nil, err
	}
	sigRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	if len(sigRaw) != 65 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: WithdrawalRequest signature must be 65 bytes")
	}
	var sig rollupcrypto.RecoverableSignature
	copy(sig[:], sigRaw)
	return &WithdrawalRequest{Raw: *req, Signature: sig}, nil
}

// WitnessHash is the leaf value a withdrawal request contributes to a
// block's withdrawal-witness-root (CBMT), and to the finalize-withdrawal
// cursor's per-block witness proofs.
func (w WithdrawalRequest) WitnessHash() Hash {
	return rollupcrypto.CKBBlake2b(w.Marshal())
}
