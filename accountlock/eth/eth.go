// Package eth implements the Ethereum-compatible EOA account lock: an
// ECDSA secp256k1 signature over either a polyjuice RLP transaction digest
// or the rollup's own Godwoken signing message, recovered and matched
// against the 20-byte Keccak address packed into the cell's lock args.
// Grounded byte-for-byte on original_source/contracts/account-locks/
// eth-account-lock/src/eth_signature.rs.
package eth

import (
	"encoding/binary"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rlp"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Address is a 20-byte Ethereum-style account address.
type Address [20]byte

// LockArgsLen is the fixed length of an eth-account-lock's args: a 32-byte
// rollup type hash followed by a 20-byte address.
const LockArgsLen = 52

// ExtractLockArgs splits a cell's lock args into the rollup type hash it is
// bound to and the address it authenticates.
func ExtractLockArgs(args []byte) (chaintypes.Hash, Address, error) {
	if len(args) != LockArgsLen {
		return chaintypes.Hash{}, Address{}, ckberrors.New(ckberrors.Encoding, "eth: lock args must be 52 bytes")
	}
	var addr Address
	copy(addr[:], args[32:])
	return chaintypes.BytesToHash(args[:32]), addr, nil
}

func recoverAndMatch(addr Address, sig rollupcrypto.RecoverableSignature, message [32]byte) (bool, error) {
	pub, err := rollupcrypto.RecoverUncompressed(sig, message)
	if err != nil {
		return false, nil
	}
	got := Address(rollupcrypto.EthAddress(pub))
	return got == addr, nil
}

// VerifyMessage checks sig over message using Ethereum's personal-sign
// prefix ("\x19Ethereum Signed Message:\n32" ‖ message), the scheme
// withdrawal-request signatures use since they have no native Ethereum
// transaction representation.
func VerifyMessage(addr Address, sig rollupcrypto.RecoverableSignature, message chaintypes.Hash) (bool, error) {
	prefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	return recoverAndMatch(addr, sig, prefixed)
}

// VerifyTx checks an L2 transaction's signature: a polyjuice RLP digest
// when the tx's args parse as a polyjuice call or create (see
// tryAssemblePolyjuiceArgs; the receiver's script type is not checked),
// otherwise the rollup's Godwoken signing message.
func VerifyTx(rollupTypeHash chaintypes.Hash, addr Address, senderScript, receiverScript chaintypes.Script, tx chaintypes.L2Transaction) (bool, error) {
	if rlpData, ok := tryAssemblePolyjuiceArgs(tx.Raw, receiverScript); ok {
		digest := rollupcrypto.Keccak256(rlpData)
		return recoverAndMatch(addr, tx.Signature, digest)
	}
	message := godwokenSigningMessage(rollupTypeHash, senderScript, receiverScript, tx)
	return recoverAndMatch(addr, tx.Signature, [32]byte(message))
}

func godwokenSigningMessage(rollupTypeHash chaintypes.Hash, sender, receiver chaintypes.Script, tx chaintypes.L2Transaction) chaintypes.Hash {
	return rollupcrypto.CKBBlake2b(rollupTypeHash.Bytes(), sender.Hash().Bytes(), receiver.Hash().Bytes(), tx.Marshal())
}

// polyjuiceTag is the args prefix that marks a polyjuice transaction.
var polyjuiceTag = []byte("\xFF\xFF\xFFPOLY")

const rollupChainID = 0 // Open Question #2: hardcoded, never read from a config cell.

// tryAssemblePolyjuiceArgs reassembles the RLP-encoded Ethereum-style
// transaction list a polyjuice tx's signature actually covers, or reports
// ok=false when raw isn't a polyjuice call/create.
func tryAssemblePolyjuiceArgs(raw chaintypes.RawL2Transaction, receiver chaintypes.Script) (rlpData []byte, ok bool) {
	args := raw.Args
	if len(args) < 52 {
		return nil, false
	}
	if string(args[0:7]) != string(polyjuiceTag) {
		return nil, false
	}

	gasLimit := binary.LittleEndian.Uint64(args[8:16])
	gasPrice := make([]byte, 16)
	copy(gasPrice, args[16:32])

	var to []byte
	var polyjuiceChainID uint32
	if args[7] == 3 { // EVMC_CREATE
		to = make([]byte, 20)
		polyjuiceChainID = raw.ToID
	} else {
		if len(receiver.Args) < 36 {
			return nil, false
		}
		polyjuiceChainID = binary.LittleEndian.Uint32(receiver.Args[32:36])
		to = make([]byte, 20)
		receiverHash := receiver.Hash()
		copy(to[0:16], receiverHash[:16])
		binary.LittleEndian.PutUint32(to[16:20], raw.ToID)
	}

	value := make([]byte, 16)
	copy(value, args[32:48])

	payloadLen := binary.LittleEndian.Uint32(args[48:52])
	if uint32(len(args)) != 52+payloadLen {
		return nil, false
	}
	payload := args[52 : 52+payloadLen]

	chainID := (uint64(rollupChainID) << 32) | uint64(polyjuiceChainID)

	fields := []interface{}{
		raw.Nonce,
		leBigEndianUint(gasPrice),
		gasLimit,
		to,
		leBigEndianUint(value),
		payload,
		chainID,
		uint8(0),
		uint8(0),
	}
	encoded, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, false
	}
	return encoded, true
}

// leBigEndianUint reverses a little-endian u128 byte string into the
// minimal big-endian byte string RLP uses for an integer: no leading zero
// bytes, and zero becomes the empty string (encoded as 0x80). RLP integers
// have no fixed width; rlp.Encode on a []byte encodes it as a string, not a
// scalar, so callers that need RLP's minimal-big-endian-integer encoding
// must reverse and trim first. original_source's rlp::Encodable for u128
// performs the same little-to-big reversal internally.
func leBigEndianUint(le []byte) []byte {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	i := 0
	for i < len(be) && be[i] == 0 {
		i++
	}
	return be[i:]
}

// Run is the eth-account-lock's entry point (§4.4). The guarded cell's own
// data picks the mode: 32 bytes names an owner-lock-hash and defers to the
// tx-signature path, 64 bytes appends the message the owner signed
// directly. Either way a co-located input carrying that owner-lock-hash
// must exist, matching the spec's "co-located input" requirement.
func Run(loader chain.Loader) error {
	script, err := loader.LoadScript()
	if err != nil {
		return err
	}
	rollupTypeHash, addr, err := ExtractLockArgs(script.Args)
	if err != nil {
		return err
	}

	data, err := loader.LoadCellData(0, chain.GroupInput)
	if err != nil {
		return err
	}

	var ownerLockHash chaintypes.Hash
	var message *chaintypes.Hash
	switch len(data) {
	case 32:
		ownerLockHash = chaintypes.BytesToHash(data)
	case 64:
		ownerLockHash = chaintypes.BytesToHash(data[:32])
		m := chaintypes.BytesToHash(data[32:64])
		message = &m
	default:
		return ckberrors.New(ckberrors.Encoding, "eth: guarded cell data must be 32 or 64 bytes")
	}

	if idx, err := chain.QueryCellLockHash(loader, chain.Input, [32]byte(ownerLockHash)); err != nil {
		return err
	} else if idx < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "eth: no co-located input carries the declared owner-lock-hash")
	}

	wa, err := loader.LoadWitnessArgs(0, chain.GroupInput)
	if err != nil {
		return err
	}

	var ok bool
	if message != nil {
		if len(wa.Lock) != 65 {
			return ckberrors.New(ckberrors.Encoding, "eth: message-signature mode requires a 65-byte lock witness")
		}
		var sig rollupcrypto.RecoverableSignature
		copy(sig[:], wa.Lock)
		ok, err = VerifyMessage(addr, sig, *message)
	} else {
		txw, perr := chaintypes.ParseAccountTxWitness(wa.Lock)
		if perr != nil {
			return perr
		}
		ok, err = VerifyTx(rollupTypeHash, addr, txw.SenderScript, txw.ReceiverScript, txw.L2Tx)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ckberrors.New(ckberrors.ErrorPubkeyHash, "eth: recovered address does not match the lock args")
	}
	return nil
}
