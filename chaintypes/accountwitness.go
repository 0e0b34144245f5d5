package chaintypes

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
)

// AccountTxWitness is the lock-witness payload an account-lock cell carries
// in tx-signature mode (§4.4): the challenged L2 transaction plus the two
// account scripts godwokenSigningMessage (or the polyjuice path) needs to
// rebuild the exact bytes the signature covers. Its marshaled form is the
// entire WitnessArgs.lock field in this mode; message-signature mode never
// uses this type, since the message is the cell's own data instead of a
// transaction.
type AccountTxWitness struct {
	L2Tx           L2Transaction
	SenderScript   Script
	ReceiverScript Script
}

func (w AccountTxWitness) Marshal() []byte {
	return molecule.BuildTable([][]byte{
		w.L2Tx.Marshal(),
		w.SenderScript.Marshal(),
		w.ReceiverScript.Marshal(),
	})
}

func ParseAccountTxWitness(raw []byte) (*AccountTxWitness, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 3 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "chaintypes: AccountTxWitness missing fields")
	}
	txRaw, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	tx, err := ParseL2Transaction(txRaw)
	if err != nil {
		return nil, err
	}
	senderRaw, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	sender, err := ParseScript(senderRaw)
	if err != nil {
		return nil, err
	}
	receiverRaw, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	receiver, err := ParseScript(receiverRaw)
	if err != nil {
		return nil, err
	}
	return &AccountTxWitness{L2Tx: *tx, SenderScript: *sender, ReceiverScript: *receiver}, nil
}
