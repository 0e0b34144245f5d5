package rollupcrypto

import (
	"math/big"
)

// EIP-712 typed-data hashing for the Withdrawal message challenged by the
// Withdrawal target-type verifier (§4.2). Field and type-string shapes are
// recovered byte-for-byte from original_source's eip712/types.rs.

// Script is the EIP-712 encoding of a lock/type script.
type Script struct {
	CodeHash [32]byte
	HashType string // "data" or "type"
	Args     []byte
}

const scriptTypeString = "Script(bytes32 codeHash,string hashType,bytes args)"

func (s Script) typeHash() [32]byte {
	return Keccak256([]byte(scriptTypeString))
}

func (s Script) encodeData() []byte {
	th := s.typeHash()
	hashType := Keccak256([]byte(s.HashType))
	argsHash := Keccak256(s.Args)
	var out []byte
	out = append(out, th[:]...)
	out = append(out, s.CodeHash[:]...)
	out = append(out, hashType[:]...)
	out = append(out, argsHash[:]...)
	return out
}

func (s Script) hashStruct() [32]byte {
	return Keccak256(s.encodeData())
}

// WithdrawalAsset is the EIP-712 encoding of the asset half of a withdrawal.
type WithdrawalAsset struct {
	CKBCapacity   uint64
	UDTAmount     *big.Int // u128, left-padded to 32 bytes as uint256
	UDTScriptHash [32]byte
}

const withdrawalAssetTypeString = "WithdrawalAsset(uint256 ckbCapacity,uint256 UDTAmount,bytes32 UDTScriptHash)"

func (w WithdrawalAsset) typeHash() [32]byte {
	return Keccak256([]byte(withdrawalAssetTypeString))
}

func (w WithdrawalAsset) encodeData() []byte {
	th := w.typeHash()
	var out []byte
	out = append(out, th[:]...)
	out = append(out, padUint(new(big.Int).SetUint64(w.CKBCapacity))...)
	amount := w.UDTAmount
	if amount == nil {
		amount = new(big.Int)
	}
	out = append(out, padUint(amount)...)
	out = append(out, w.UDTScriptHash[:]...)
	return out
}

func (w WithdrawalAsset) hashStruct() [32]byte {
	return Keccak256(w.encodeData())
}

// Withdrawal is the EIP-712 message signed by a withdrawal request's owner.
type Withdrawal struct {
	AccountScriptHash [32]byte
	Nonce             uint32
	ChainID           uint64
	Fee               uint64
	Layer1OwnerLock   Script
	Withdraw          WithdrawalAsset
}

// withdrawalTypeString appends the referenced struct type strings after the
// root type string, per EIP-712 encodeType: Script before WithdrawalAsset,
// matching the order original_source declares them in.
const withdrawalTypeString = "Withdrawal(bytes32 accountScriptHash,uint256 nonce,uint256 chainId,uint256 fee,Script layer1OwnerLock,WithdrawalAsset withdraw)" +
	scriptTypeString + withdrawalAssetTypeString

func (w Withdrawal) typeHash() [32]byte {
	return Keccak256([]byte(withdrawalTypeString))
}

func (w Withdrawal) encodeData() []byte {
	th := w.typeHash()
	lock := w.Layer1OwnerLock.hashStruct()
	asset := w.Withdraw.hashStruct()
	var out []byte
	out = append(out, th[:]...)
	out = append(out, w.AccountScriptHash[:]...)
	out = append(out, padUint(new(big.Int).SetUint64(uint64(w.Nonce)))...)
	out = append(out, padUint(new(big.Int).SetUint64(w.ChainID))...)
	out = append(out, padUint(new(big.Int).SetUint64(w.Fee))...)
	out = append(out, lock[:]...)
	out = append(out, asset[:]...)
	return out
}

// HashStruct returns keccak256(typeHash ‖ encodeData) for this Withdrawal.
func (w Withdrawal) HashStruct() [32]byte {
	return Keccak256(w.encodeData())
}

// Domain is an EIP-712 domain separator restricted to the three fields the
// Godwoken Withdrawal message actually declares: name, version, chain id.
// VerifyingContract and Salt are never populated by this core.
type Domain struct {
	Name    string
	Version string
	ChainID uint64
}

const domainTypeString = "EIP712Domain(string name,string version,uint256 chainId)"

func (d Domain) hashStruct() [32]byte {
	th := Keccak256([]byte(domainTypeString))
	name := Keccak256([]byte(d.Name))
	version := Keccak256([]byte(d.Version))
	var buf []byte
	buf = append(buf, th[:]...)
	buf = append(buf, name[:]...)
	buf = append(buf, version[:]...)
	buf = append(buf, padUint(new(big.Int).SetUint64(d.ChainID))...)
	return Keccak256(buf)
}

// WithdrawalDigest computes the final EIP-712 digest:
// keccak256(0x1901 ‖ domainSeparator ‖ hashStruct(withdrawal)), using a
// domain named "Godwoken", version "1", and the withdrawal's own chain id
// (domain_with_chain_id in original_source).
func WithdrawalDigest(w Withdrawal, chainID uint64) [32]byte {
	domain := Domain{Name: "Godwoken", Version: "1", ChainID: chainID}
	ds := domain.hashStruct()
	sh := w.HashStruct()
	return Keccak256([]byte{0x19, 0x01}, ds[:], sh[:])
}

// padUint left-pads i's big-endian bytes to 32 bytes, the ABI encoding of a
// uint256 (also used here for smaller uint fields, which EIP-712 always
// widens to uint256 in encodeData).
func padUint(i *big.Int) []byte {
	b := i.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
