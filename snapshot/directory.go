package snapshot

import (
	"procwalk/process"
	"procwalk/winapi"
)

// ProcessView lists every process on the system.
type ProcessView = View[winapi.ProcessEntry32, process.ProcessInfo]

// ThreadView lists the threads of one process.
type ThreadView = View[winapi.ThreadEntry32, process.ThreadInfo]

// ModuleView lists the modules of one process.
type ModuleView = View[winapi.ModuleEntry32, process.ModuleInfo]

func create(tl winapi.Toolhelp, flags uint32, pid uint32) (winapi.Handle, error) {
	h, err := tl.CreateToolhelp32Snapshot(flags, pid)
	if err != nil || h == winapi.InvalidHandle {
		return winapi.InvalidHandle, process.NewOSError("CreateToolhelp32Snapshot", err, formatterOf(tl))
	}
	return h, nil
}

// Processes snapshots all processes.
func Processes(tl winapi.Toolhelp) (*ProcessView, error) {
	h, err := create(tl, winapi.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	it := New[winapi.ProcessEntry32](h, winapi.NewProcessEntry32(), tl.Process32First, tl.Process32Next, tl.CloseHandle)
	return &ProcessView{
		it:     it,
		ops:    [2]string{"Process32First", "Process32Next"},
		format: formatterOf(tl),
		decode: func(e *winapi.ProcessEntry32) (process.ProcessInfo, bool) {
			return process.ProcessInfo{
				PID:     process.ProcessID(e.ProcessID),
				PPID:    process.ProcessID(e.ParentProcessID),
				Name:    winapi.UTF16ToString(e.ExeFile[:]),
				Threads: int(e.Threads),
			}, true
		},
	}, nil
}

// Threads snapshots the threads owned by pid. The system hands back every
// thread on the machine, so rows of other processes are filtered out.
func Threads(tl winapi.Toolhelp, pid process.ProcessID) (*ThreadView, error) {
	h, err := create(tl, winapi.TH32CS_SNAPTHREAD, uint32(pid))
	if err != nil {
		return nil, err
	}
	row := winapi.NewThreadEntry32()
	row.OwnerProcessID = uint32(pid)
	it := New[winapi.ThreadEntry32](h, row, tl.Thread32First, tl.Thread32Next, tl.CloseHandle)
	return &ThreadView{
		it:     it,
		ops:    [2]string{"Thread32First", "Thread32Next"},
		format: formatterOf(tl),
		decode: func(e *winapi.ThreadEntry32) (process.ThreadInfo, bool) {
			if e.OwnerProcessID != uint32(pid) {
				return process.ThreadInfo{}, false
			}
			return process.ThreadInfo{
				PID:          process.ProcessID(e.OwnerProcessID),
				TID:          process.ThreadID(e.ThreadID),
				BasePriority: int(e.BasePri),
			}, true
		},
	}, nil
}

// Modules snapshots the modules loaded into pid, 32-bit modules of a WOW64
// process included.
func Modules(tl winapi.Toolhelp, pid process.ProcessID) (*ModuleView, error) {
	h, err := create(tl, winapi.TH32CS_SNAPMODULE|winapi.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return nil, err
	}
	it := New[winapi.ModuleEntry32](h, winapi.NewModuleEntry32(), tl.Module32First, tl.Module32Next, tl.CloseHandle)
	return &ModuleView{
		it:     it,
		ops:    [2]string{"Module32First", "Module32Next"},
		format: formatterOf(tl),
		decode: func(e *winapi.ModuleEntry32) (process.ModuleInfo, bool) {
			return process.ModuleInfo{
				Name: winapi.UTF16ToString(e.Module[:]),
				Path: winapi.UTF16ToString(e.ExePath[:]),
				Base: process.ProcessMemoryAddress(uint64(e.ModBaseAddr)),
				Size: process.ProcessMemorySize(e.ModBaseSize),
			}, true
		},
	}, nil
}
