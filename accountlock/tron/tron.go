// Package tron implements the TRON-compatible EOA account lock: the same
// secp256k1 recoverable-signature scheme as accountlock/eth, but addresses
// and message signing both use TRON's own prefix convention instead of
// Ethereum's (spec §4.4: "equivalent for tron (with a \"\\x19TRON Signed
// Message:\\n32\" prefix over the raw message)"). TRON accounts never carry
// polyjuice transactions, so there is no RLP fallback here.
package tron

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Address is a 20-byte TRON-style account address (the Keccak-derived
// identity, not TRON's base58check mainnet address form -- this core never
// encodes addresses for display).
type Address [20]byte

// LockArgsLen is the fixed length of a tron-account-lock's args.
const LockArgsLen = 52

func ExtractLockArgs(args []byte) (chaintypes.Hash, Address, error) {
	if len(args) != LockArgsLen {
		return chaintypes.Hash{}, Address{}, ckberrors.New(ckberrors.Encoding, "tron: lock args must be 52 bytes")
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

var tronPrefix = []byte("\x19TRON Signed Message:\n32")

// VerifyMessage checks sig over message using TRON's signed-message prefix.
func VerifyMessage(addr Address, sig rollupcrypto.RecoverableSignature, message chaintypes.Hash) (bool, error) {
	prefixed := rollupcrypto.Keccak256(tronPrefix, message.Bytes())
	return recoverAndMatch(addr, sig, prefixed)
}

// VerifyTx checks an L2 transaction's signature against the rollup's native
// Godwoken signing message -- TRON accounts have no polyjuice equivalent.
func VerifyTx(rollupTypeHash chaintypes.Hash, addr Address, senderScript, receiverScript chaintypes.Script, tx chaintypes.L2Transaction) (bool, error) {
	message := rollupcrypto.CKBBlake2b(rollupTypeHash.Bytes(), senderScript.Hash().Bytes(), receiverScript.Hash().Bytes(), tx.Marshal())
	return recoverAndMatch(addr, tx.Signature, [32]byte(message))
}

// Run is the tron-account-lock's entry point, identical in shape to
// accountlock/eth.Run (§4.4) minus the polyjuice RLP fallback TRON accounts
// never use.
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
		return ckberrors.New(ckberrors.Encoding, "tron: guarded cell data must be 32 or 64 bytes")
	}

	if idx, err := chain.QueryCellLockHash(loader, chain.Input, [32]byte(ownerLockHash)); err != nil {
		return err
	} else if idx < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "tron: no co-located input carries the declared owner-lock-hash")
	}

	wa, err := loader.LoadWitnessArgs(0, chain.GroupInput)
	if err != nil {
		return err
	}

	var ok bool
	if message != nil {
		if len(wa.Lock) != 65 {
			return ckberrors.New(ckberrors.Encoding, "tron: message-signature mode requires a 65-byte lock witness")
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
		return ckberrors.New(ckberrors.ErrorPubkeyHash, "tron: recovered address does not match the lock args")
	}
	return nil
}
