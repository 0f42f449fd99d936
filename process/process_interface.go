package process

// Process is an opened process. Every method except GetPID and Close
// returns ErrProcessNotOpen once the process has been closed.
type Process interface {
	// Close releases the process handle and its symbol session
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// ModuleName returns the file name of the module loaded at base
	ModuleName(base ProcessMemoryAddress) (string, error)

	// ModulePath returns the full path of the module loaded at base
	ModulePath(base ProcessMemoryAddress) (string, error)

	// ImagePath returns the full path of the process executable
	ImagePath() (string, error)

	// ListModules lists the loaded modules through the process handle
	ListModules() ([]ModuleInfo, error)

	// ListModulesWithPaths is ListModules with ModuleInfo.Path filled in
	ListModulesWithPaths() ([]ModuleInfo, error)

	// ResolveSymbol resolves "module!symbol"; false when it cannot be resolved
	ResolveSymbol(name string) (ProcessMemoryAddress, bool)

	// WriteMemory writes data at addr and returns how many bytes were written
	WriteMemory(addr ProcessMemoryAddress, data []byte) (ProcessMemorySize, error)
}
