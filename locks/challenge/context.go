// Package challenge implements the challenge lock script: it guards a cell
// that represents an in-progress fraud challenge and decides whether the
// transaction spending it is a legitimate resolution (§4.2). Grounded on
// original_source/contracts/challenge-lock/src/{entry,verifications/*}.rs.
package challenge

import (
	"encoding/binary"
	"sort"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/smt"
)

// Per-account KV-state fields this verifier looks up. original_source derives
// these as SMT keys via gw_common::state::build_account_field_key, which is
// not part of this repo's grounding material; the scheme below is a
// self-consistent substitute (a one-byte field tag plus the big-endian
// account id in a 32-byte key) -- both the witness producer and this
// verifier must agree on it, and nothing outside this package ever needs to.
const (
	fieldNonce      byte = 0
	fieldScriptHash byte = 1
)

func accountFieldKey(field byte, accountID uint32) smt.H256 {
	var k smt.H256
	k[0] = field
	binary.BigEndian.PutUint32(k[28:32], accountID)
	return k
}

// nonceValue decodes a nonce KV-state leaf's 32-byte value: the nonce
// occupies the low 4 bytes big-endian. A script-hash leaf's value is the
// 32-byte hash itself and is used as is.
func nonceValue(v chaintypes.Hash) uint32 {
	return binary.BigEndian.Uint32(v[28:32])
}

func kvLookup(kv []chaintypes.KVPair, key smt.H256) (chaintypes.Hash, bool) {
	for _, p := range kv {
		if smt.H256(p.Key) == key {
			return p.Value, true
		}
	}
	return chaintypes.Hash{}, false
}

// txContext is the TxContext the shared verifier reconstructs: the sender
// and receiver account-script hashes identified by the witness's KV-state.
type txContext struct {
	senderScriptHash   chaintypes.Hash
	receiverScriptHash chaintypes.Hash
}

// verifyTxContext runs the three checks every TxExecution/TxSignature
// cancel shares (§4.2): KV-state root against the prev-state-checkpoint,
// tx-witness membership, and sender/receiver EOA-vs-contract script
// classification.
func verifyTxContext(rollupConfig *chaintypes.RollupConfig, target chaintypes.ChallengeTarget, w *chaintypes.CCTxContextWitness) (*txContext, error) {
	senderID := w.L2Tx.Raw.FromID
	receiverID := w.L2Tx.Raw.ToID

	senderHash, ok := kvLookup(w.KVState, accountFieldKey(fieldScriptHash, senderID))
	if !ok {
		return nil, ckberrors.New(ckberrors.ItemMissing, "challenge: sender script-hash missing from kv-state")
	}
	receiverHash, ok := kvLookup(w.KVState, accountFieldKey(fieldScriptHash, receiverID))
	if !ok {
		return nil, ckberrors.New(ckberrors.ItemMissing, "challenge: receiver script-hash missing from kv-state")
	}

	senderNonceVal, ok := kvLookup(w.KVState, accountFieldKey(fieldNonce, senderID))
	if !ok {
		return nil, ckberrors.New(ckberrors.ItemMissing, "challenge: sender nonce missing from kv-state")
	}
	if nonceValue(senderNonceVal) != w.L2Tx.Raw.Nonce {
		return nil, ckberrors.New(ckberrors.Encoding, "challenge: tx nonce does not match sender's kv-state nonce")
	}

	senderScript, err := findScript(w.Scripts, senderHash)
	if err != nil {
		return nil, err
	}
	receiverScript, err := findScript(w.Scripts, receiverHash)
	if err != nil {
		return nil, err
	}

	if senderScript.HashType != chaintypes.HashTypeType || !rollupConfig.HasEOATypeHash(senderScript.CodeHash) {
		return nil, ckberrors.New(ckberrors.Encoding, "challenge: sender is not an allowed EOA script")
	}
	if receiverScript.HashType != chaintypes.HashTypeType || !rollupConfig.HasContractTypeHash(receiverScript.CodeHash) {
		return nil, ckberrors.New(ckberrors.Encoding, "challenge: receiver is not an allowed contract script")
	}

	if w.RawBlock.Hash() != target.BlockHash {
		return nil, ckberrors.New(ckberrors.InvalidBlock, "challenge: witness raw block does not match challenge target")
	}

	if err := verifyTxWitnessMembership(w, target.TargetIndex); err != nil {
		return nil, err
	}
	if err := verifyPrevStateCheckpoint(w, target.TargetIndex); err != nil {
		return nil, err
	}

	return &txContext{senderScriptHash: senderHash, receiverScriptHash: receiverHash}, nil
}

func findScript(scripts []chaintypes.Script, hash chaintypes.Hash) (*chaintypes.Script, error) {
	for i := range scripts {
		if scripts[i].Hash() == hash {
			return &scripts[i], nil
		}
	}
	return nil, ckberrors.New(ckberrors.ItemMissing, "challenge: script not found in witness scripts vector")
}

// verifyTxWitnessMembership checks that the tx's witness-hash sits at
// tx-index under raw-block.submit-transactions.tx-witness-root: an SMT
// membership proof keyed by smt.ComputeKey(tx-index), not a CBMT proof.
func verifyTxWitnessMembership(w *chaintypes.CCTxContextWitness, txIndex uint32) error {
	leaf := smt.Pair{
		Key:   smt.ComputeKey(uint64(txIndex)),
		Value: smt.H256(w.L2Tx.WitnessHash()),
	}
	ok, err := smt.VerifyCompiledProof(smt.H256(w.RawBlock.SubmitTransactions.TxWitnessRoot), []smt.Pair{leaf}, w.TxProof)
	if err != nil {
		return err
	}
	if !ok {
		return ckberrors.New(ckberrors.Encoding, "challenge: tx witness-root membership proof failed")
	}
	return nil
}

// verifyPrevStateCheckpoint reconstructs the KV-state's root from the
// witness's leaves and proof, and checks it against the checkpoint named
// either by the block's own prev-state-checkpoint (tx-index 0) or by the
// state-checkpoint-list entry for this tx (skipping the withdrawal-count
// offset).
func verifyPrevStateCheckpoint(w *chaintypes.CCTxContextWitness, txIndex uint32) error {
	var prevCheckpoint chaintypes.Hash
	if txIndex == 0 {
		prevCheckpoint = w.RawBlock.SubmitTransactions.PrevStateCheckpoint
	} else {
		offset := w.RawBlock.SubmitWithdrawals.WithdrawalCount
		idx := offset + (txIndex - 1)
		if int(idx) >= len(w.RawBlock.StateCheckpointList) {
			return ckberrors.New(ckberrors.LengthNotEnough, "challenge: state-checkpoint-list too short for tx-index")
		}
		prevCheckpoint = w.RawBlock.StateCheckpointList[idx]
	}

	leaves := make([]smt.Pair, len(w.KVState))
	for i, p := range w.KVState {
		leaves[i] = smt.Pair{Key: smt.H256(p.Key), Value: smt.H256(p.Value)}
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leavesLess(leaves[i].Key, leaves[j].Key)
	})
	root, err := smt.ComputeRoot(leaves, w.KVStateProof)
	if err != nil {
		return err
	}
	calculated := chaintypes.StateCheckpoint(chaintypes.Hash(root), w.AccountCount)
	if calculated != prevCheckpoint {
		return ckberrors.New(ckberrors.Encoding, "challenge: kv-state root does not match prev-state-checkpoint")
	}
	return nil
}

func leavesLess(a, b smt.H256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// verifyTxExecution is the TxExecution target's cancel verifier: it runs
// the shared TxContext check, then requires an input whose lock-hash equals
// the receiver's script hash -- the backend validator re-runs the
// computation and decides correctness from there.
func verifyTxExecution(loader chain.Loader, rollupConfig *chaintypes.RollupConfig, target chaintypes.ChallengeTarget) error {
	w, err := loadTxContextWitness(loader)
	if err != nil {
		return err
	}
	ctx, err := verifyTxContext(rollupConfig, target, w)
	if err != nil {
		return err
	}
	idx, err := chain.QueryCellLockHash(loader, chain.Input, [32]byte(ctx.receiverScriptHash))
	if err != nil {
		return err
	}
	if idx < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "challenge: receiver account-lock cell not found in inputs")
	}
	return nil
}

// verifyTxSignature is the TxSignature target's cancel verifier: it runs
// the shared TxContext check, then requires an input whose lock-hash equals
// the sender's script hash and whose cell data is shaped as a tx-signature
// or message-signature payload (§4.4) -- the actual signature check is that
// cell's own lock script's job, not this one's.
func verifyTxSignature(loader chain.Loader, rollupConfig *chaintypes.RollupConfig, target chaintypes.ChallengeTarget) error {
	w, err := loadTxContextWitness(loader)
	if err != nil {
		return err
	}
	ctx, err := verifyTxContext(rollupConfig, target, w)
	if err != nil {
		return err
	}
	found, err := findAccountLockCell(loader, ctx.senderScriptHash)
	if err != nil {
		return err
	}
	if !found {
		return ckberrors.New(ckberrors.ItemMissing, "challenge: sender account-lock cell not found in inputs")
	}
	return nil
}

// findAccountLockCell scans every input cell whose lock-hash equals
// scriptHash (there may be more than one) for the first whose data is
// shaped as a 32- or 64-byte account-lock payload (§4.4).
func findAccountLockCell(loader chain.Loader, scriptHash chaintypes.Hash) (bool, error) {
	count := loader.CellCount(chain.Input)
	for i := 0; i < count; i++ {
		h, err := loader.LoadCellLockHash(i, chain.Input)
		if err != nil {
			return false, err
		}
		if chaintypes.Hash(h) != scriptHash {
			continue
		}
		data, err := loader.LoadCellData(i, chain.Input)
		if err != nil {
			return false, err
		}
		if len(data) == 32 || len(data) == 64 {
			return true, nil
		}
	}
	return false, nil
}

func loadTxContextWitness(loader chain.Loader) (*chaintypes.CCTxContextWitness, error) {
	wa, err := loader.LoadWitnessArgs(0, chain.GroupInput)
	if err != nil {
		return nil, err
	}
	if len(wa.Lock) == 0 {
		return nil, ckberrors.New(ckberrors.Encoding, "challenge: group input carries no unlock witness")
	}
	return chaintypes.ParseCCTxContextWitness(wa.Lock)
}
