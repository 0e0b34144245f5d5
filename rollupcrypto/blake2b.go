// Package rollupcrypto gathers every hash/signature primitive the core
// touches: domain-separated Blake2b for cell and SMT hashing, plain Blake2b
// for CBMT leaves, Keccak256 and secp256k1 recovery for EOA signatures, and
// EIP-712 typed-data hashing for withdrawal challenges.
package rollupcrypto

import blake2bsimd "github.com/minio/blake2b-simd"

// ckbPersonalization is the domain-separation tag the base chain uses for
// every on-chain hash: script hashes, cell hashes, SMT node hashes.
//
// golang.org/x/crypto/blake2b does not expose a personalization parameter
// (its public API only covers the unsalted, unpersonalized variant), so the
// personalized half of this package is built on minio/blake2b-simd instead,
// which is the library the CKB Go ecosystem (nervosnetwork/ckb-sdk-go) uses
// for exactly this purpose.
var ckbPersonalization = []byte("ckb-default-hash")

// CKBBlake2b hashes data with the chain's standard personalization. This is
// the hash used for script hashes, cell/tx hashes, and SMT node hashing --
// never for CBMT leaves, which use plain, unpersonalized Blake2b instead
// (§9 design notes: "the hashers are domain-separated... do not share
// buffer types").
func CKBBlake2b(data ...[]byte) [32]byte {
	h, err := blake2bsimd.New(&blake2bsimd.Config{Size: 32, Person: ckbPersonalization})
	if err != nil {
		panic(err)
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PlainBlake2b hashes data with no personalization, used for CBMT leaf
// hashing.
func PlainBlake2b(data ...[]byte) [32]byte {
	h, err := blake2bsimd.New(&blake2bsimd.Config{Size: 32})
	if err != nil {
		panic(err)
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
