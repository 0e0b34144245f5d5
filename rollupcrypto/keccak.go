package rollupcrypto

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// Keccak256 hashes the concatenation of data, matching the teacher's
// crypto/keccak.go wrapper shape but delegating to go-ethereum's crypto
// package, which is already the teacher's real dependency for this.
func Keccak256(data ...[]byte) [32]byte {
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(data...))
	return out
}
