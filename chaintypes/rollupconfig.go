package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// RollupConfig is the immutable configuration cell referenced by hash from
// GlobalState (spec §3). ChallengeMaturityBlocks resolves SPEC_FULL.md
// Open-Question #1.
type RollupConfig struct {
	FinalityBlocks           uint64
	ChallengeMaturityBlocks  uint64
	RewardBurnRate           uint8 // 0-100
	BurnLockHash             Hash
	AllowedEOATypeHashes     []Hash
	AllowedContractTypeHashes []Hash
	StakeScriptTypeHash       Hash
	CustodianScriptTypeHash   Hash
	WithdrawalScriptTypeHash  Hash
	ChallengeScriptTypeHash   Hash
	L2SudtScriptTypeHash      Hash
	L1SudtScriptTypeHash      Hash
	CompatibleChainID         uint32
}

const rollupConfigFieldCount = 13

func hashVecMarshal(hs []Hash) []byte {
	out := putU32(uint32(len(hs)))
	for _, h := range hs {
		out = append(out, h.Bytes()...)
	}
	return out
}

func parseHashVec(raw []byte) ([]Hash, error) {
	fv, err := molecule.NewFixVec(raw, 32)
	if err != nil {
		return nil, err
	}
	out := make([]Hash, fv.Len())
	for i := 0; i < fv.Len(); i++ {
		item, err := fv.Item(i)
		if err != nil {
			return nil, err
		}
		out[i] = BytesToHash(item)
	}
	return out, nil
}

func (c RollupConfig) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		putU64(c.FinalityBlocks),
		putU64(c.ChallengeMaturityBlocks),
		{c.RewardBurnRate},
		c.BurnLockHash.Bytes(),
		hashVecMarshal(c.AllowedEOATypeHashes),
		hashVecMarshal(c.AllowedContractTypeHashes),
		c.StakeScriptTypeHash.Bytes(),
		c.CustodianScriptTypeHash.Bytes(),
		c.WithdrawalScriptTypeHash.Bytes(),
		c.ChallengeScriptTypeHash.Bytes(),
		c.L2SudtScriptTypeHash.Bytes(),
		c.L1SudtScriptTypeHash.Bytes(),
		putU32(c.CompatibleChainID),
	})
}

func ParseRollupConfig(raw []byte) (*RollupConfig, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < rollupConfigFieldCount {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: RollupConfig missing fields")
	}
	field := func(i int) ([]byte, error) { return tbl.Field(i) }

	finality, err := field(0)
	if err != nil {
		return nil, err
	}
	finalityBlocks, err := getU64(finality)
	if err != nil {
		return nil, err
	}
	maturity, err := field(1)
	if err != nil {
		return nil, err
	}
	maturityBlocks, err := getU64(maturity)
	if err != nil {
		return nil, err
	}
	burnRate, err := field(2)
	if err != nil {
		return nil, err
	}
	if len(burnRate) != 1 {
		return nil, ckberrors.New(ckberrors.Encoding, "chaintypes: RollupConfig reward burn rate length mismatch")
	}
	burnLockHash, err := field(3)
	if err != nil {
		return nil, err
	}
	eoaRaw, err := field(4)
	if err != nil {
		return nil, err
	}
	eoaHashes, err := parseHashVec(eoaRaw)
	if err != nil {
		return nil, err
	}
	contractRaw, err := field(5)
	if err != nil {
		return nil, err
	}
	contractHashes, err := parseHashVec(contractRaw)
	if err != nil {
		return nil, err
	}
	stake, err := field(6)
	if err != nil {
		return nil, err
	}
	custodian, err := field(7)
	if err != nil {
		return nil, err
	}
	withdrawal, err := field(8)
	if err != nil {
		return nil, err
	}
	challenge, err := field(9)
	if err != nil {
		return nil, err
	}
	l2sudt, err := field(10)
	if err != nil {
		return nil, err
	}
	l1sudt, err := field(11)
	if err != nil {
		return nil, err
	}
	chainIDRaw, err := field(12)
	if err != nil {
		return nil, err
	}
	chainID, err := getU32(chainIDRaw)
	if err != nil {
		return nil, err
	}

	return &RollupConfig{
		FinalityBlocks:            finalityBlocks,
		ChallengeMaturityBlocks:   maturityBlocks,
		RewardBurnRate:            burnRate[0],
		BurnLockHash:              BytesToHash(burnLockHash),
		AllowedEOATypeHashes:      eoaHashes,
		AllowedContractTypeHashes: contractHashes,
		StakeScriptTypeHash:       BytesToHash(stake),
		CustodianScriptTypeHash:   BytesToHash(custodian),
		WithdrawalScriptTypeHash:  BytesToHash(withdrawal),
		ChallengeScriptTypeHash:   BytesToHash(challenge),
		L2SudtScriptTypeHash:      BytesToHash(l2sudt),
		L1SudtScriptTypeHash:      BytesToHash(l1sudt),
		CompatibleChainID:         chainID,
	}, nil
}

// HasEOATypeHash reports whether h is in the allowed-EOA set (§4.2 TxContext
// check: "sender... code-hash must be in rollup-config.allowed-eoa-type-
// hashes").
func (c RollupConfig) HasEOATypeHash(h Hash) bool {
	for _, x := range c.AllowedEOATypeHashes {
		if x == h {
			return true
		}
	}
	return false
}

// HasContractTypeHash reports whether h is in the allowed-contract set.
func (c RollupConfig) HasContractTypeHash(h Hash) bool {
	for _, x := range c.AllowedContractTypeHashes {
		if x == h {
			return true
		}
	}
	return false
}
