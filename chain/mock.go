package chain

import (
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Mock is an in-memory Loader used by tests in place of a real CKB-VM host.
// It exercises the same interface every verifier is written against, so a
// predicate's logic can be driven without a VM -- the Go-native analogue of
// the original crate's script-test harness.
type Mock struct {
	cells       map[Source][]Cell
	witnesses   map[Source][]WitnessArgs
	headers     map[Source][]Header
	since       map[Source]map[int]uint64
	script      *Script
	scriptHash  [32]byte
	txHash      [32]byte
}

// NewMock returns an empty Mock ready for cells/witnesses to be added.
func NewMock() *Mock {
	return &Mock{
		cells:     make(map[Source][]Cell),
		witnesses: make(map[Source][]WitnessArgs),
		headers:   make(map[Source][]Header),
		since:     make(map[Source]map[int]uint64),
	}
}

// AddCell appends a cell to source and returns its index.
func (m *Mock) AddCell(source Source, cell Cell) int {
	m.cells[source] = append(m.cells[source], cell)
	return len(m.cells[source]) - 1
}

// SetWitness sets the WitnessArgs at index within source.
func (m *Mock) SetWitness(source Source, index int, w WitnessArgs) {
	list := m.witnesses[source]
	for len(list) <= index {
		list = append(list, WitnessArgs{})
	}
	list[index] = w
	m.witnesses[source] = list
}

// AddHeader appends a header to source and returns its index.
func (m *Mock) AddHeader(source Source, h Header) int {
	m.headers[source] = append(m.headers[source], h)
	return len(m.headers[source]) - 1
}

// SetSince records the since field for (source, index).
func (m *Mock) SetSince(source Source, index int, since uint64) {
	if m.since[source] == nil {
		m.since[source] = make(map[int]uint64)
	}
	m.since[source][index] = since
}

// SetScript sets the return value for LoadScript/LoadScriptHash.
func (m *Mock) SetScript(s Script) {
	m.script = &s
	m.scriptHash = ScriptHash(s)
}

// SetTxHash sets the return value for LoadTxHash.
func (m *Mock) SetTxHash(h [32]byte) { m.txHash = h }

func (m *Mock) LoadCell(index int, source Source) (*Cell, error) {
	list := m.cells[source]
	if index < 0 || index >= len(list) {
		return nil, ErrIndexOutOfBound
	}
	c := list[index]
	return &c, nil
}

func (m *Mock) LoadCellData(index int, source Source) ([]byte, error) {
	c, err := m.LoadCell(index, source)
	if err != nil {
		return nil, err
	}
	return c.Data, nil
}

func (m *Mock) LoadCellLockHash(index int, source Source) ([32]byte, error) {
	c, err := m.LoadCell(index, source)
	if err != nil {
		return [32]byte{}, err
	}
	return ScriptHash(c.Output.Lock), nil
}

func (m *Mock) LoadCellTypeHash(index int, source Source) (*[32]byte, error) {
	c, err := m.LoadCell(index, source)
	if err != nil {
		return nil, err
	}
	if c.Output.Type == nil {
		return nil, nil
	}
	h := ScriptHash(*c.Output.Type)
	return &h, nil
}

func (m *Mock) LoadCellCapacity(index int, source Source) (uint64, error) {
	c, err := m.LoadCell(index, source)
	if err != nil {
		return 0, err
	}
	return c.Output.Capacity, nil
}

func (m *Mock) LoadWitnessArgs(index int, source Source) (*WitnessArgs, error) {
	list := m.witnesses[source]
	if index < 0 || index >= len(list) {
		return nil, ErrIndexOutOfBound
	}
	w := list[index]
	return &w, nil
}

func (m *Mock) LoadScript() (*Script, error) {
	if m.script == nil {
		return nil, ErrItemMissing
	}
	return m.script, nil
}

func (m *Mock) LoadScriptHash() ([32]byte, error) {
	if m.script == nil {
		return [32]byte{}, ErrItemMissing
	}
	return m.scriptHash, nil
}

func (m *Mock) LoadHeader(index int, source Source) (*Header, error) {
	list := m.headers[source]
	if index < 0 || index >= len(list) {
		return nil, ErrIndexOutOfBound
	}
	h := list[index]
	return &h, nil
}

func (m *Mock) LoadTxHash() ([32]byte, error) {
	return m.txHash, nil
}

func (m *Mock) Since(index int, source Source) (uint64, error) {
	s, ok := m.since[source][index]
	if !ok {
		return 0, ErrItemMissing
	}
	return s, nil
}

func (m *Mock) CellCount(source Source) int {
	return len(m.cells[source])
}

// ScriptHash hashes a script the same way a real cell's lock/type hash is
// computed on-chain: domain-separated Blake2b over its full molecule table
// encoding (code-hash ‖ hash-type ‖ args), matching chaintypes.Script.Hash
// so a Mock cell's lock/type hash agrees with any hash a verifier computed
// from a chaintypes.Script for the same code-hash/hash-type/args.
func ScriptHash(s Script) [32]byte {
	raw := molecule.BuildTable([][]byte{
		s.CodeHash[:],
		{s.HashType},
		molecule.BuildBytes(s.Args),
	})
	return rollupcrypto.CKBBlake2b(raw)
}
