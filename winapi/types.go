// Package winapi holds the native record layouts and the OS collaborators
// used by procwalk. The records mirror the Win32 structures byte for byte so
// the Windows binding can hand them straight to the system calls, while the
// rest of the module (and its tests) can build and inspect them on any OS.
package winapi

import "unsafe"

// Handle is an opaque OS handle (HANDLE, HMODULE).
type Handle uintptr

// InvalidHandle is INVALID_HANDLE_VALUE.
const InvalidHandle = ^Handle(0)

const (
	MAX_PATH          = 260
	MAX_MODULE_NAME32 = 255
)

// CreateToolhelp32Snapshot flags
const (
	TH32CS_SNAPPROCESS  = 0x00000002
	TH32CS_SNAPTHREAD   = 0x00000004
	TH32CS_SNAPMODULE   = 0x00000008
	TH32CS_SNAPMODULE32 = 0x00000010
)

// PROCESS_ALL_ACCESS as defined for Vista and later.
const PROCESS_ALL_ACCESS = 0x001FFFFF

// ProcessEntry32 is PROCESSENTRY32W.
type ProcessEntry32 struct {
	Size            uint32
	Usage           uint32
	ProcessID       uint32
	DefaultHeapID   uintptr
	ModuleID        uint32
	Threads         uint32
	ParentProcessID uint32
	PriClassBase    int32
	Flags           uint32
	ExeFile         [MAX_PATH]uint16
}

// ThreadEntry32 is THREADENTRY32.
type ThreadEntry32 struct {
	Size           uint32
	Usage          uint32
	ThreadID       uint32
	OwnerProcessID uint32
	BasePri        int32
	DeltaPri       int32
	Flags          uint32
}

// ModuleEntry32 is MODULEENTRY32W.
type ModuleEntry32 struct {
	Size         uint32
	ModuleID     uint32
	ProcessID    uint32
	GlblcntUsage uint32
	ProccntUsage uint32
	ModBaseAddr  uintptr
	ModBaseSize  uint32
	ModuleHandle Handle
	Module       [MAX_MODULE_NAME32 + 1]uint16
	ExePath      [MAX_PATH]uint16
}

// ModuleInfo is MODULEINFO as filled by GetModuleInformation.
type ModuleInfo struct {
	BaseOfDll   uintptr
	SizeOfImage uint32
	EntryPoint  uintptr
}

// NewProcessEntry32 returns a row with its dwSize header filled in.
func NewProcessEntry32() ProcessEntry32 {
	var e ProcessEntry32
	e.Size = uint32(unsafe.Sizeof(e))
	return e
}

// NewThreadEntry32 returns a row with its dwSize header filled in.
func NewThreadEntry32() ThreadEntry32 {
	var e ThreadEntry32
	e.Size = uint32(unsafe.Sizeof(e))
	return e
}

// NewModuleEntry32 returns a row with its dwSize header filled in.
func NewModuleEntry32() ModuleEntry32 {
	var e ModuleEntry32
	e.Size = uint32(unsafe.Sizeof(e))
	return e
}

// HandleSize is the size of one slot in an EnumProcessModules buffer.
const HandleSize = uint32(unsafe.Sizeof(Handle(0)))
