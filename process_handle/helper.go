package process_handle

import (
	"fmt"

	"procwalk/process"
	"procwalk/snapshot"
	"procwalk/winapi"
)

// Helper opens processes against a winapi.System
type Helper struct {
	Sys    winapi.System
	Finder process.ProcessFinder

	// SymbolPath is handed to SymInitialize; empty keeps the dbghelp default.
	SymbolPath string
}

var _ process.ProcessOpener = (*Helper)(nil)

// NewHelper creates a Helper whose finder enumerates through sys
func NewHelper(sys winapi.System) *Helper {
	return &Helper{
		Sys:    sys,
		Finder: snapshot.NewProcessFinder(sys),
	}
}

// OpenByPID opens pid with PROCESS_ALL_ACCESS.
func (h *Helper) OpenByPID(pid process.ProcessID) (process.Process, error) {
	p, err := h.open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Helper) open(pid process.ProcessID) (*WindowsProcess, error) {
	handle, err := h.Sys.OpenProcess(winapi.PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil || handle == 0 {
		return nil, process.NewOSError("OpenProcess", err, h.Sys)
	}

	p, err := h.adopt(handle)
	if err != nil {
		h.Sys.CloseHandle(handle)
		return nil, err
	}
	return p, nil
}

// OpenByName opens the first process, in snapshot order, whose name
// contains substr. The match is case-sensitive.
func (h *Helper) OpenByName(substr string) (process.Process, error) {
	info, err := h.Finder.FindProcessByNameSubstring(substr)
	if err != nil {
		return nil, err
	}
	p, err := h.open(info.PID)
	if err != nil {
		return nil, fmt.Errorf("open %s (pid %d): %w", info.Name, info.PID, err)
	}
	return p, nil
}

// Adopt takes ownership of an already opened process handle; Close on the
// result closes it.
func (h *Helper) Adopt(handle winapi.Handle) (*WindowsProcess, error) {
	return h.adopt(handle)
}

func (h *Helper) adopt(handle winapi.Handle) (*WindowsProcess, error) {
	pid, err := h.Sys.GetProcessId(handle)
	if err != nil || pid == 0 {
		return nil, process.NewOSError("GetProcessId", err, h.Sys)
	}

	p := &WindowsProcess{
		pid:    process.ProcessID(pid),
		handle: handle,
		sys:    h.Sys,
		log:    openLogger(process.ProcessID(pid)),
	}

	// Without a symbol session the process is still usable; only
	// ResolveSymbol is affected.
	if err := h.Sys.SymInitialize(handle, h.SymbolPath, true); err != nil {
		p.log.Warn("Symbol session unavailable: ", process.NewOSError("SymInitialize", err, h.Sys))
	} else {
		p.symbols = true
	}

	p.log.Infoln("Process opened")
	return p, nil
}

var defaultHelper = NewHelper(winapi.NewSystem())

// NewWithPID opens pid on the live system
func NewWithPID(pid process.ProcessID) (process.Process, error) {
	return defaultHelper.OpenByPID(pid)
}

// NewWithName opens the first live process whose name contains substr
func NewWithName(substr string) (process.Process, error) {
	return defaultHelper.OpenByName(substr)
}

// Adopt wraps an already opened handle on the live system
func Adopt(handle winapi.Handle) (*WindowsProcess, error) {
	return defaultHelper.Adopt(handle)
}
