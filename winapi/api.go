package winapi

// Toolhelp is the snapshot enumeration protocol of kernel32.
// First/Next steps return ERROR_NO_MORE_FILES when the snapshot is exhausted.
type Toolhelp interface {
	CreateToolhelp32Snapshot(flags uint32, pid uint32) (Handle, error)

	Process32First(snapshot Handle, entry *ProcessEntry32) error
	Process32Next(snapshot Handle, entry *ProcessEntry32) error

	Thread32First(snapshot Handle, entry *ThreadEntry32) error
	Thread32Next(snapshot Handle, entry *ThreadEntry32) error

	Module32First(snapshot Handle, entry *ModuleEntry32) error
	Module32Next(snapshot Handle, entry *ModuleEntry32) error

	CloseHandle(h Handle) error
}

// ProcessAPI is the process-object protocol of kernel32 and psapi.
type ProcessAPI interface {
	OpenProcess(access uint32, inherit bool, pid uint32) (Handle, error)
	GetProcessId(process Handle) (uint32, error)

	// EnumProcessModules fills modules and reports the number of bytes the
	// complete list needs, which may exceed the buffer.
	EnumProcessModules(process Handle, modules []Handle) (needed uint32, err error)
	GetModuleInformation(process Handle, module Handle) (ModuleInfo, error)

	// The name queries return the number of UTF-16 units written to buf.
	GetModuleBaseName(process Handle, module Handle, buf []uint16) (int, error)
	GetModuleFileNameEx(process Handle, module Handle, buf []uint16) (int, error)
	QueryFullProcessImageName(process Handle, buf []uint16) (int, error)

	WriteProcessMemory(process Handle, addr uintptr, data []byte) (written uintptr, err error)

	CloseHandle(h Handle) error
}

// SymbolAPI is the dbghelp symbol session protocol, keyed by process handle.
type SymbolAPI interface {
	SymInitialize(process Handle, searchPath string, invadeProcess bool) error
	SymFromName(process Handle, name string) (uint64, error)
	SymCleanup(process Handle) error
}

// MessageFormatter turns a system error code into text, or "" when the
// system has no message for it.
type MessageFormatter interface {
	FormatMessage(code uint32) string
}

// System bundles every collaborator procwalk consumes.
type System interface {
	Toolhelp
	ProcessAPI
	SymbolAPI
	MessageFormatter
}
