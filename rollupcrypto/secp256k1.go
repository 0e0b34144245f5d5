package rollupcrypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// RecoverableSignature is a 65-byte r||s||v signature as produced by every
// off-chain signer this core verifies (eth personal-sign, EIP-712, tron).
type RecoverableSignature [65]byte

// NormalizeRecoveryID folds the several V encodings seen in the wild (raw
// 0/1, Bitcoin-style 27/28) down to a 0/1 recovery id. EIP-155 chain-id-
// encoded V values are never produced by the signers this core verifies
// (EIP-712 and personal-sign both use raw or 27/28 V), so anything else is
// rejected rather than guessed at.
func NormalizeRecoveryID(v byte) (byte, error) {
	switch {
	case v == 0 || v == 1:
		return v, nil
	case v == 27 || v == 28:
		return v - 27, nil
	default:
		return 0, fmt.Errorf("rollupcrypto: unsupported recovery id %d", v)
	}
}

// RecoverUncompressed recovers the 65-byte uncompressed secp256k1 public
// key that produced sig over hash. hash is the 32-byte digest the signer
// actually signed -- callers are responsible for assembling it per §4.4's
// signing-message derivation.
func RecoverUncompressed(sig RecoverableSignature, hash [32]byte) ([65]byte, error) {
	recID, err := NormalizeRecoveryID(sig[64])
	if err != nil {
		return [65]byte{}, err
	}

	// decred's compact format puts the recovery byte first, biased by 27
	// for an uncompressed result (28-30 would request recovery ids 1-3).
	compact := make([]byte, 65)
	compact[0] = 27 + recID
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return [65]byte{}, fmt.Errorf("rollupcrypto: recover compact: %w", err)
	}
	var out [65]byte
	copy(out[:], pub.SerializeUncompressed())
	return out, nil
}

// EthAddress derives an Ethereum-style 20-byte address from an uncompressed
// secp256k1 public key: Keccak256(pubkey[1:])[12:32].
func EthAddress(uncompressedPub [65]byte) [20]byte {
	h := Keccak256(uncompressedPub[1:])
	var addr [20]byte
	copy(addr[:], h[12:])
	return addr
}
