//go:build !riscv64

package chain

// Host only has a real body under GOARCH=riscv64, the one target CKB-VM
// actually runs: that's the only place the ecall trap host_riscv64.go
// issues means anything. Building for any other GOARCH only ever happens
// to run this module's tests against chain.Mock, which never touch Host.
type Host struct{}

func NewHost() *Host { return &Host{} }

func (h *Host) LoadCell(index int, source Source) (*Cell, error) { panic("chain: Host requires GOARCH=riscv64") }
func (h *Host) LoadCellData(index int, source Source) ([]byte, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadCellLockHash(index int, source Source) ([32]byte, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadCellTypeHash(index int, source Source) (*[32]byte, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadCellCapacity(index int, source Source) (uint64, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadWitnessArgs(index int, source Source) (*WitnessArgs, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadScript() (*Script, error)     { panic("chain: Host requires GOARCH=riscv64") }
func (h *Host) LoadScriptHash() ([32]byte, error) { panic("chain: Host requires GOARCH=riscv64") }
func (h *Host) LoadHeader(index int, source Source) (*Header, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) LoadTxHash() ([32]byte, error) { panic("chain: Host requires GOARCH=riscv64") }
func (h *Host) Since(index int, source Source) (uint64, error) {
	panic("chain: Host requires GOARCH=riscv64")
}
func (h *Host) CellCount(source Source) int { panic("chain: Host requires GOARCH=riscv64") }
