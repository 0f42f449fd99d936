package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ThreadID represents a unique identifier for a thread
type ThreadID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID     ProcessID // Process ID
	PPID    ProcessID // Parent Process ID, possibly stale after PID reuse
	Name    string    // Executable file name
	Threads int       // Number of threads at snapshot time
}

// ThreadInfo identifies a thread and the process that owns it
type ThreadInfo struct {
	PID          ProcessID // Owning process
	TID          ThreadID
	BasePriority int
}

// ModuleInfo describes a module loaded into a process
type ModuleInfo struct {
	Name string // Module file name, e.g. kernel32.dll
	Path string // Full path, empty unless requested
	Base ProcessMemoryAddress
	Size ProcessMemorySize
}

// End returns the first address past the module image.
func (m ModuleInfo) End() ProcessMemoryAddress {
	return m.Base + ProcessMemoryAddress(m.Size)
}

// Contains reports whether addr falls inside the module image.
func (m ModuleInfo) Contains(addr ProcessMemoryAddress) bool {
	return addr >= m.Base && addr < m.End()
}

// ProcessTreeNode represents a node in a process tree
type ProcessTreeNode struct {
	Process  ProcessInfo
	Children []*ProcessTreeNode
}
