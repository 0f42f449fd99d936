// Package winapitest provides an in-memory winapi.System for tests.
package winapitest

import (
	"fmt"

	"procwalk/winapi"
)

// Process describes one fake process.
type Process struct {
	PID       uint32
	PPID      uint32
	Name      string
	ImagePath string
	Threads   []uint32
	Modules   []Module
}

// Module describes one module loaded into a fake process.
type Module struct {
	Handle winapi.Handle
	Name   string
	Path   string
	Size   uint32
}

// Thread is one row of the system-wide thread snapshot.
type Thread struct {
	OwnerPID uint32
	TID      uint32
}

// Write records one WriteProcessMemory call.
type Write struct {
	Process winapi.Handle
	Addr    uintptr
	Data    []byte
}

type snapshot struct {
	flags  uint32
	pid    uint32
	cursor int
}

// System is a scriptable winapi.System. The zero value is not usable; call
// New.
type System struct {
	Processes []Process

	// ThreadRows, when set, replaces the thread snapshot derived from
	// Processes so tests can control interleaving.
	ThreadRows []Thread

	// SnapshotErr makes CreateToolhelp32Snapshot fail.
	SnapshotErr error

	// StepErr makes the snapshot step that would produce row index i fail.
	StepErr map[int]error

	// EnumErrs is consumed one entry per EnumProcessModules call.
	EnumErrs []error

	// EnumNeeded, when non-zero, overrides the reported byte count of the
	// first EnumProcessModules call.
	EnumNeeded uint32

	// WriteLimit caps the bytes a write copies; negative means no cap.
	WriteLimit int

	SymInitErr error
	Symbols    map[string]uint64
	Messages   map[uint32]string

	EnumCalls int
	Writes    []Write
	Closed    map[winapi.Handle]int

	next      winapi.Handle
	snapshots map[winapi.Handle]*snapshot
	opened    map[winapi.Handle]uint32
	sessions  map[winapi.Handle]bool
}

var _ winapi.System = (*System)(nil)

// New returns a fake system populated with procs.
func New(procs ...Process) *System {
	return &System{
		Processes:  procs,
		WriteLimit: -1,
		Symbols:    map[string]uint64{},
		Messages:   map[uint32]string{},
		Closed:     map[winapi.Handle]int{},
		next:       0x100,
		snapshots:  map[winapi.Handle]*snapshot{},
		opened:     map[winapi.Handle]uint32{},
		sessions:   map[winapi.Handle]bool{},
	}
}

func (s *System) handle() winapi.Handle {
	s.next += 4
	return s.next
}

// OpenSnapshots reports how many snapshot handles are still open.
func (s *System) OpenSnapshots() int {
	return len(s.snapshots)
}

// OpenProcesses reports how many process handles are still open.
func (s *System) OpenProcesses() int {
	return len(s.opened)
}

// HasSession reports whether a symbol session is active for h.
func (s *System) HasSession(h winapi.Handle) bool {
	return s.sessions[h]
}

func (s *System) find(pid uint32) *Process {
	for i := range s.Processes {
		if s.Processes[i].PID == pid {
			return &s.Processes[i]
		}
	}
	return nil
}

func (s *System) threadRows() []Thread {
	if s.ThreadRows != nil {
		return s.ThreadRows
	}
	var rows []Thread
	for _, p := range s.Processes {
		for _, tid := range p.Threads {
			rows = append(rows, Thread{OwnerPID: p.PID, TID: tid})
		}
	}
	return rows
}

func (s *System) CreateToolhelp32Snapshot(flags uint32, pid uint32) (winapi.Handle, error) {
	if s.SnapshotErr != nil {
		return winapi.InvalidHandle, s.SnapshotErr
	}
	if flags&(winapi.TH32CS_SNAPMODULE|winapi.TH32CS_SNAPMODULE32) != 0 && s.find(pid) == nil {
		return winapi.InvalidHandle, winapi.ERROR_INVALID_PARAMETER
	}
	h := s.handle()
	s.snapshots[h] = &snapshot{flags: flags, pid: pid}
	return h, nil
}

// step moves the cursor of snapshot h and reports which row to fill.
func (s *System) step(h winapi.Handle, size uint32, want uint32, first bool, rows int) (int, error) {
	snap, ok := s.snapshots[h]
	if !ok || snap.flags&want == 0 {
		return 0, winapi.ERROR_INVALID_HANDLE
	}
	if size == 0 {
		return 0, winapi.ERROR_BAD_LENGTH
	}
	if first {
		snap.cursor = 0
	} else {
		snap.cursor++
	}
	if err, ok := s.StepErr[snap.cursor]; ok {
		return 0, err
	}
	if snap.cursor >= rows {
		return 0, winapi.ERROR_NO_MORE_FILES
	}
	return snap.cursor, nil
}

func (s *System) processRow(h winapi.Handle, e *winapi.ProcessEntry32, first bool) error {
	i, err := s.step(h, e.Size, winapi.TH32CS_SNAPPROCESS, first, len(s.Processes))
	if err != nil {
		return err
	}
	p := s.Processes[i]
	row := winapi.NewProcessEntry32()
	row.ProcessID = p.PID
	row.ParentProcessID = p.PPID
	row.Threads = uint32(len(p.Threads))
	winapi.PutUTF16(row.ExeFile[:], p.Name)
	*e = row
	return nil
}

func (s *System) Process32First(h winapi.Handle, e *winapi.ProcessEntry32) error {
	return s.processRow(h, e, true)
}

func (s *System) Process32Next(h winapi.Handle, e *winapi.ProcessEntry32) error {
	return s.processRow(h, e, false)
}

func (s *System) threadRow(h winapi.Handle, e *winapi.ThreadEntry32, first bool) error {
	rows := s.threadRows()
	i, err := s.step(h, e.Size, winapi.TH32CS_SNAPTHREAD, first, len(rows))
	if err != nil {
		return err
	}
	row := winapi.NewThreadEntry32()
	row.OwnerProcessID = rows[i].OwnerPID
	row.ThreadID = rows[i].TID
	row.BasePri = 8
	*e = row
	return nil
}

func (s *System) Thread32First(h winapi.Handle, e *winapi.ThreadEntry32) error {
	return s.threadRow(h, e, true)
}

func (s *System) Thread32Next(h winapi.Handle, e *winapi.ThreadEntry32) error {
	return s.threadRow(h, e, false)
}

func (s *System) moduleRow(h winapi.Handle, e *winapi.ModuleEntry32, first bool) error {
	snap, ok := s.snapshots[h]
	if !ok {
		return winapi.ERROR_INVALID_HANDLE
	}
	p := s.find(snap.pid)
	if p == nil {
		return winapi.ERROR_INVALID_HANDLE
	}
	i, err := s.step(h, e.Size, winapi.TH32CS_SNAPMODULE|winapi.TH32CS_SNAPMODULE32, first, len(p.Modules))
	if err != nil {
		return err
	}
	m := p.Modules[i]
	row := winapi.NewModuleEntry32()
	row.ProcessID = p.PID
	row.ModBaseAddr = uintptr(m.Handle)
	row.ModBaseSize = m.Size
	row.ModuleHandle = m.Handle
	winapi.PutUTF16(row.Module[:], m.Name)
	winapi.PutUTF16(row.ExePath[:], m.Path)
	*e = row
	return nil
}

func (s *System) Module32First(h winapi.Handle, e *winapi.ModuleEntry32) error {
	return s.moduleRow(h, e, true)
}

func (s *System) Module32Next(h winapi.Handle, e *winapi.ModuleEntry32) error {
	return s.moduleRow(h, e, false)
}

func (s *System) CloseHandle(h winapi.Handle) error {
	if _, ok := s.snapshots[h]; ok {
		delete(s.snapshots, h)
		s.Closed[h]++
		return nil
	}
	if _, ok := s.opened[h]; ok {
		delete(s.opened, h)
		s.Closed[h]++
		return nil
	}
	s.Closed[h]++
	return winapi.ERROR_INVALID_HANDLE
}

func (s *System) OpenProcess(access uint32, inherit bool, pid uint32) (winapi.Handle, error) {
	if s.find(pid) == nil {
		return 0, winapi.ERROR_INVALID_PARAMETER
	}
	h := s.handle()
	s.opened[h] = pid
	return h, nil
}

// Adoptable opens pid outside of any procwalk code path, as a caller that
// already owns a native handle would.
func (s *System) Adoptable(pid uint32) winapi.Handle {
	h := s.handle()
	s.opened[h] = pid
	return h
}

func (s *System) process(h winapi.Handle) (*Process, error) {
	pid, ok := s.opened[h]
	if !ok {
		return nil, winapi.ERROR_INVALID_HANDLE
	}
	p := s.find(pid)
	if p == nil {
		return nil, winapi.ERROR_INVALID_HANDLE
	}
	return p, nil
}

func (s *System) GetProcessId(h winapi.Handle) (uint32, error) {
	p, err := s.process(h)
	if err != nil {
		return 0, err
	}
	return p.PID, nil
}

func (s *System) EnumProcessModules(h winapi.Handle, modules []winapi.Handle) (uint32, error) {
	s.EnumCalls++
	p, err := s.process(h)
	if err != nil {
		return 0, err
	}
	needed := uint32(len(p.Modules)) * winapi.HandleSize
	if s.EnumCalls == 1 && s.EnumNeeded != 0 {
		needed = s.EnumNeeded
	}
	if len(s.EnumErrs) > 0 {
		err, s.EnumErrs = s.EnumErrs[0], s.EnumErrs[1:]
		if err != nil {
			return needed, err
		}
	}
	for i := 0; i < len(modules) && i < len(p.Modules); i++ {
		modules[i] = p.Modules[i].Handle
	}
	return needed, nil
}

func (s *System) module(h, mod winapi.Handle) (*Module, error) {
	p, err := s.process(h)
	if err != nil {
		return nil, err
	}
	for i := range p.Modules {
		if p.Modules[i].Handle == mod {
			return &p.Modules[i], nil
		}
	}
	return nil, winapi.ERROR_MOD_NOT_FOUND
}

func (s *System) GetModuleInformation(h, mod winapi.Handle) (winapi.ModuleInfo, error) {
	m, err := s.module(h, mod)
	if err != nil {
		return winapi.ModuleInfo{}, err
	}
	return winapi.ModuleInfo{BaseOfDll: uintptr(m.Handle), SizeOfImage: m.Size, EntryPoint: uintptr(m.Handle) + 0x1000}, nil
}

func (s *System) GetModuleBaseName(h, mod winapi.Handle, buf []uint16) (int, error) {
	m, err := s.module(h, mod)
	if err != nil {
		return 0, err
	}
	return winapi.PutUTF16(buf, m.Name), nil
}

func (s *System) GetModuleFileNameEx(h, mod winapi.Handle, buf []uint16) (int, error) {
	m, err := s.module(h, mod)
	if err != nil {
		return 0, err
	}
	return winapi.PutUTF16(buf, m.Path), nil
}

func (s *System) QueryFullProcessImageName(h winapi.Handle, buf []uint16) (int, error) {
	p, err := s.process(h)
	if err != nil {
		return 0, err
	}
	if p.ImagePath == "" {
		return 0, winapi.ERROR_ACCESS_DENIED
	}
	return winapi.PutUTF16(buf, p.ImagePath), nil
}

func (s *System) WriteProcessMemory(h winapi.Handle, addr uintptr, data []byte) (uintptr, error) {
	if _, err := s.process(h); err != nil {
		return 0, err
	}
	n := len(data)
	if s.WriteLimit >= 0 && n > s.WriteLimit {
		n = s.WriteLimit
	}
	if n > 0 {
		s.Writes = append(s.Writes, Write{Process: h, Addr: addr, Data: append([]byte(nil), data[:n]...)})
	}
	if n < len(data) {
		return uintptr(n), winapi.ERROR_PARTIAL_COPY
	}
	return uintptr(n), nil
}

func (s *System) SymInitialize(h winapi.Handle, searchPath string, invade bool) error {
	if s.SymInitErr != nil {
		return s.SymInitErr
	}
	if _, err := s.process(h); err != nil {
		return err
	}
	s.sessions[h] = true
	return nil
}

func (s *System) SymFromName(h winapi.Handle, name string) (uint64, error) {
	if !s.sessions[h] {
		return 0, winapi.ERROR_INVALID_HANDLE
	}
	addr, ok := s.Symbols[name]
	if !ok {
		return 0, winapi.ERROR_MOD_NOT_FOUND
	}
	return addr, nil
}

func (s *System) SymCleanup(h winapi.Handle) error {
	if !s.sessions[h] {
		return winapi.ERROR_INVALID_HANDLE
	}
	delete(s.sessions, h)
	return nil
}

func (s *System) FormatMessage(code uint32) string {
	return s.Messages[code]
}

// Modules builds n modules with consecutive page-aligned handles.
func Modules(n int) []Module {
	mods := make([]Module, n)
	for i := range mods {
		base := winapi.Handle(0x10000000 + uintptr(i)*0x100000)
		name := fmt.Sprintf("mod%03d.dll", i)
		mods[i] = Module{Handle: base, Name: name, Path: `C:\fake\` + name, Size: 0x10000}
	}
	return mods
}
