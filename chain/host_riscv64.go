//go:build riscv64

package chain

import (
	"encoding/binary"
	"unsafe"

	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"golang.org/x/sys/unix"
)

// Host is the production Loader. CKB-VM traps syscalls through the same
// ecall instruction and register convention (a7 = syscall number, a0-a5 =
// arguments, a0 = return code) that golang.org/x/sys/unix already wires up
// for linux/riscv64, reusing ckb-std's numbering (2048 and up) instead of
// the kernel's -- so the existing raw-syscall primitive doubles as the
// host trap with no assembly of our own.
//
// This is the one package in the module with no teacher or pack file to
// ground it on: none of the example repos run inside a VM with no kernel
// underneath it. See DESIGN.md for why it stands alone.
type Host struct{}

func NewHost() *Host { return &Host{} }

const (
	sysLoadTxHash      = 2061
	sysLoadScriptHash  = 2062
	sysLoadCellByField = 2081
	sysLoadInputSince  = 2083
	sysLoadCellData    = 2092
	sysLoadWitnessArgs = 2074
	sysLoadScript      = 2052
)

// cellField mirrors ckb_std::ckb_constants::CellField.
const (
	cellFieldCapacity = 0
	cellFieldLockHash = 3
	cellFieldTypeHash = 5
)

// inputFieldSince mirrors ckb_std::ckb_constants::InputField::Since.
const inputFieldSince = 1

// trap issues one host syscall following the standard CKB load convention:
// a growable output buffer, its length communicated both ways, plus up to
// three selector arguments (offset is always 0 -- this core never reads a
// field in chunks). A non-zero return code surfaces as ErrIndexOutOfBound
// or ErrItemMissing, the only two a Loader caller ever needs to tell apart.
func trap(num uintptr, index, source, field int) ([]byte, error) {
	buf := make([]byte, 4096)
	for {
		length := uint64(len(buf))
		ret, _, _ := unix.RawSyscall6(num,
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&length)),
			0,
			uintptr(index),
			uintptr(source),
			uintptr(field),
		)
		switch ret {
		case 0:
			if length > uint64(len(buf)) {
				buf = make([]byte, length)
				continue
			}
			return buf[:length], nil
		case 1:
			return nil, ErrIndexOutOfBound
		default:
			return nil, ErrItemMissing
		}
	}
}

func beU64(b []byte) uint64 {
	var padded [8]byte
	copy(padded[8-len(b):], b)
	return binary.BigEndian.Uint64(padded[:])
}

func (h *Host) LoadCell(index int, source Source) (*Cell, error) {
	lockHash, err := h.LoadCellLockHash(index, source)
	if err != nil {
		return nil, err
	}
	typeHash, err := h.LoadCellTypeHash(index, source)
	if err != nil {
		return nil, err
	}
	cap, err := h.LoadCellCapacity(index, source)
	if err != nil {
		return nil, err
	}
	data, err := h.LoadCellData(index, source)
	if err != nil {
		return nil, err
	}
	out := CellOutput{Capacity: cap, Lock: Script{CodeHash: lockHash}}
	if typeHash != nil {
		out.Type = &Script{CodeHash: *typeHash}
	}
	return &Cell{Output: out, Data: data}, nil
}

func (h *Host) LoadCellData(index int, source Source) ([]byte, error) {
	return trap(sysLoadCellData, index, int(source), 0)
}

func (h *Host) LoadCellLockHash(index int, source Source) ([32]byte, error) {
	raw, err := trap(sysLoadCellByField, index, int(source), cellFieldLockHash)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

func (h *Host) LoadCellTypeHash(index int, source Source) (*[32]byte, error) {
	raw, err := trap(sysLoadCellByField, index, int(source), cellFieldTypeHash)
	if err != nil {
		if err == ErrItemMissing {
			return nil, nil
		}
		return nil, err
	}
	var out [32]byte
	copy(out[:], raw)
	return &out, nil
}

func (h *Host) LoadCellCapacity(index int, source Source) (uint64, error) {
	raw, err := trap(sysLoadCellByField, index, int(source), cellFieldCapacity)
	if err != nil {
		return 0, err
	}
	return beU64(raw), nil
}

func (h *Host) LoadWitnessArgs(index int, source Source) (*WitnessArgs, error) {
	raw, err := trap(sysLoadWitnessArgs, index, int(source), 0)
	if err != nil {
		return nil, err
	}
	return parseWitnessArgs(raw)
}

func (h *Host) LoadScript() (*Script, error) {
	raw, err := trap(sysLoadScript, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return parseMoleculeScript(raw)
}

func (h *Host) LoadScriptHash() ([32]byte, error) {
	raw, err := trap(sysLoadScriptHash, 0, 0, 0)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

// LoadHeader is never reached: this core only ever reads since(), not
// header-dep timestamps, through this Loader (§6's since-based bound).
func (h *Host) LoadHeader(index int, source Source) (*Header, error) {
	return nil, ErrItemMissing
}

func (h *Host) LoadTxHash() ([32]byte, error) {
	raw, err := trap(sysLoadTxHash, 0, 0, 0)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

func (h *Host) Since(index int, source Source) (uint64, error) {
	raw, err := trap(sysLoadInputSince, index, int(source), inputFieldSince)
	if err != nil {
		return 0, err
	}
	return beU64(raw), nil
}

// parseWitnessArgs and parseMoleculeScript decode the two molecule tables
// this Loader reads raw off the host, mirroring Mock's already-structured
// fields. Kept here rather than in chain.go since only the real host ever
// needs to go from bytes to these shapes -- Mock is built from Go values
// directly.
func parseWitnessArgs(raw []byte) (*WitnessArgs, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	var w WitnessArgs
	for i, dst := range []*[]byte{&w.Lock, &w.InputType, &w.OutputType} {
		if i >= tbl.FieldCount() {
			continue
		}
		field, err := tbl.Field(i)
		if err != nil {
			return nil, err
		}
		if len(field) == 0 {
			continue
		}
		b, err := molecule.ParseBytes(field)
		if err != nil {
			return nil, err
		}
		*dst = b
	}
	return &w, nil
}

func parseMoleculeScript(raw []byte) (*Script, error) {
	tbl, err := molecule.NewTable(raw)
	if err != nil {
		return nil, err
	}
	if tbl.FieldCount() < 3 {
		return nil, ErrItemMissing
	}
	codeHash, err := tbl.Field(0)
	if err != nil {
		return nil, err
	}
	hashType, err := tbl.Field(1)
	if err != nil {
		return nil, err
	}
	argsField, err := tbl.Field(2)
	if err != nil {
		return nil, err
	}
	args, err := molecule.ParseBytes(argsField)
	if err != nil {
		return nil, err
	}
	var s Script
	copy(s.CodeHash[:], codeHash)
	if len(hashType) == 1 {
		s.HashType = hashType[0]
	}
	s.Args = args
	return &s, nil
}

func (h *Host) CellCount(source Source) int {
	n := 0
	for {
		if _, err := trap(sysLoadCellByField, n, int(source), cellFieldCapacity); err != nil {
			return n
		}
		n++
	}
}
