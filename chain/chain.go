// Package chain wraps the host syscall surface a CKB-VM script is given:
// loading cells, witnesses, scripts and headers by (field, index, source).
// Every verifier in this repository takes a Loader instead of calling
// syscalls directly, so it can run unmodified against chain.NewMock in
// tests and against the real host in a cmd/ entry point.
package chain

import "errors"

// Source identifies which side of a transaction an index addresses.
type Source int

const (
	Input Source = iota
	Output
	CellDep
	GroupInput
	GroupOutput
	HeaderDep
)

func (s Source) String() string {
	switch s {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case CellDep:
		return "CellDep"
	case GroupInput:
		return "GroupInput"
	case GroupOutput:
		return "GroupOutput"
	case HeaderDep:
		return "HeaderDep"
	default:
		return "Unknown"
	}
}

// ErrIndexOutOfBound is returned by a Loader when index has no cell under
// the requested source -- the Go analogue of the host's IndexOutOfBound
// syscall return code.
var ErrIndexOutOfBound = errors.New("chain: index out of bound")

// ErrItemMissing is returned when the requested field does not exist for
// an otherwise-valid cell (e.g. no type script).
var ErrItemMissing = errors.New("chain: item missing")

// Script is a lock or type script: a code hash, a hash type, and args.
type Script struct {
	CodeHash [32]byte
	HashType byte
	Args     []byte
}

// HashTypeData and HashTypeType are the two hash-type tags this core reads;
// a third ("data1") exists on real chains but is never consulted here.
const (
	HashTypeData byte = 0
	HashTypeType byte = 1
)

// CellOutput is the fixed part of a cell: capacity, lock, optional type.
type CellOutput struct {
	Capacity uint64
	Lock     Script
	Type     *Script
}

// Cell is a full cell as it would be loaded by index+source: its output
// plus its data bytes. Witness bytes are loaded separately (LoadWitnessArgs)
// because they live in the transaction's witnesses vector, not the cell.
type Cell struct {
	Output CellOutput
	Data   []byte
}

// WitnessArgs mirrors the molecule WitnessArgs table: three optional byte
// vectors (lock, input-type, output-type).
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// Header is the subset of a base-chain block header this core ever reads:
// just enough to evaluate header-dep timestamp rules (§4.1.1).
type Header struct {
	Number    uint64
	Timestamp uint64
}

// Loader is the cell-query layer every verifier is built against.
type Loader interface {
	LoadCell(index int, source Source) (*Cell, error)
	LoadCellData(index int, source Source) ([]byte, error)
	LoadCellLockHash(index int, source Source) ([32]byte, error)
	LoadCellTypeHash(index int, source Source) (*[32]byte, error)
	LoadCellCapacity(index int, source Source) (uint64, error)
	LoadWitnessArgs(index int, source Source) (*WitnessArgs, error)
	LoadScript() (*Script, error)
	LoadScriptHash() ([32]byte, error)
	LoadHeader(index int, source Source) (*Header, error)
	LoadTxHash() ([32]byte, error)
	// Since returns the transaction's since field for the given input
	// index -- only ever queried against the script's own group input.
	Since(index int, source Source) (uint64, error)
	// CellCount reports how many cells exist under source, so callers can
	// iterate 0..CellCount(source) the way QueryIter does in the original.
	CellCount(source Source) int
}

// QueryCellTypeHash scans source for the first cell whose type script hash
// equals want, returning its index or -1.
func QueryCellTypeHash(l Loader, source Source, want [32]byte) (int, error) {
	for i := 0; i < l.CellCount(source); i++ {
		h, err := l.LoadCellTypeHash(i, source)
		if err != nil {
			return -1, err
		}
		if h != nil && *h == want {
			return i, nil
		}
	}
	return -1, nil
}

// QueryCellLockHash scans source for the first cell whose lock hash equals
// want, returning its index or -1.
func QueryCellLockHash(l Loader, source Source, want [32]byte) (int, error) {
	for i := 0; i < l.CellCount(source); i++ {
		h, err := l.LoadCellLockHash(i, source)
		if err != nil {
			return -1, err
		}
		if h == want {
			return i, nil
		}
	}
	return -1, nil
}
