package challenge

import (
	"encoding/binary"

	"github.com/godwoken-rollup/rollup-scripts/cbmt"
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// verifyWithdrawal is the Withdrawal target's cancel verifier (§4.2): the
// challenged withdrawal must be proven to exist in the target block, its
// claimed sender and owner scripts must match the request's hashes, and the
// request's EIP-712 signature must be attested by a matching account-lock
// input cell.
func verifyWithdrawal(loader chain.Loader, rollupConfig *chaintypes.RollupConfig, target chaintypes.ChallengeTarget) error {
	w, err := loadWithdrawalWitness(loader)
	if err != nil {
		return err
	}

	raw := w.Withdrawal.Raw
	if w.Sender.Hash() != raw.AccountScriptHash {
		return ckberrors.New(ckberrors.Encoding, "challenge: withdrawal sender script does not match account-script-hash")
	}
	if w.OwnerLock.Hash() != raw.OwnerLockHash {
		return ckberrors.New(ckberrors.Encoding, "challenge: withdrawal owner lock does not match owner-lock-hash")
	}
	if w.RawBlock.Hash() != target.BlockHash {
		return ckberrors.New(ckberrors.InvalidBlock, "challenge: witness raw block does not match challenge target")
	}

	if err := verifyWithdrawalMembership(w); err != nil {
		return err
	}

	rollupChainID := uint32(raw.ChainID >> 32)
	if rollupChainID != rollupConfig.CompatibleChainID {
		return ckberrors.New(ckberrors.Encoding, "challenge: withdrawal chain id is not this rollup's")
	}

	digest := rollupcrypto.WithdrawalDigest(raw.ToEIP712(), raw.ChainID)
	found, err := findWithdrawalSignatureCell(loader, w.Sender.Hash(), w.OwnerLock.Hash(), digest)
	if err != nil {
		return err
	}
	if !found {
		return ckberrors.New(ckberrors.ItemMissing, "challenge: sender account-lock cell attesting the withdrawal signature not found")
	}
	return nil
}

// verifyWithdrawalMembership checks that the request's witness hash sits at
// the proven index under raw-block.submit-withdrawals.withdrawal-witness-
// root. original_source names the leaf hasher ckb_merkle_leaf_hash but does
// not vendor its definition anywhere in this pack's sources; this repo
// reconstructs it as PlainBlake2b(index as little-endian u32 ‖ witness
// hash), the general CBMT leaf-binding convention the rest of the pack's
// merkle code follows.
func verifyWithdrawalMembership(w *chaintypes.CCWithdrawalWitness) error {
	if len(w.WithdrawalProof.Indices) != 1 {
		return ckberrors.New(ckberrors.Encoding, "challenge: withdrawal proof must name exactly one index")
	}
	index := w.WithdrawalProof.Indices[0]

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], index)
	witnessHash := w.Withdrawal.WitnessHash()
	leaf := cbmt.LeafHash(append(buf[:], witnessHash.Bytes()...))

	lemmas := make([]cbmt.Hash32, len(w.WithdrawalProof.Lemmas))
	for i, l := range w.WithdrawalProof.Lemmas {
		lemmas[i] = cbmt.Hash32(l)
	}

	ok, err := cbmt.VerifyProof(
		cbmt.Hash32(w.RawBlock.SubmitWithdrawals.WithdrawalWitnessRoot),
		uint64(w.RawBlock.SubmitWithdrawals.WithdrawalCount),
		w.WithdrawalProof.Indices,
		[]cbmt.Hash32{leaf},
		lemmas,
	)
	if err != nil {
		return err
	}
	if !ok {
		return ckberrors.New(ckberrors.Encoding, "challenge: withdrawal-witness-root membership proof failed")
	}
	return nil
}

// findWithdrawalSignatureCell scans input cells whose lock-hash equals
// senderHash for one carrying a 64-byte message-signature payload (§4.4):
// owner-lock-hash ‖ message, where message is this withdrawal's EIP-712
// digest.
func findWithdrawalSignatureCell(loader chain.Loader, senderHash, ownerLockHash chaintypes.Hash, digest [32]byte) (bool, error) {
	count := loader.CellCount(chain.Input)
	for i := 0; i < count; i++ {
		h, err := loader.LoadCellLockHash(i, chain.Input)
		if err != nil {
			return false, err
		}
		if chaintypes.Hash(h) != senderHash {
			continue
		}
		data, err := loader.LoadCellData(i, chain.Input)
		if err != nil {
			return false, err
		}
		if len(data) != 64 {
			continue
		}
		if chaintypes.BytesToHash(data[:32]) != ownerLockHash {
			continue
		}
		if [32]byte(chaintypes.BytesToHash(data[32:])) != digest {
			continue
		}
		return true, nil
	}
	return false, nil
}

func loadWithdrawalWitness(loader chain.Loader) (*chaintypes.CCWithdrawalWitness, error) {
	wa, err := loader.LoadWitnessArgs(0, chain.GroupInput)
	if err != nil {
		return nil, err
	}
	if len(wa.Lock) == 0 {
		return nil, ckberrors.New(ckberrors.Encoding, "challenge: group input carries no unlock witness")
	}
	return chaintypes.ParseCCWithdrawalWitness(wa.Lock)
}
