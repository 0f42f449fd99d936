package process

// ProcessFinder defines operations for discovering processes, their threads and their modules
type ProcessFinder interface {
	// FindProcessByPID finds a process by its PID
	FindProcessByPID(pid ProcessID) (*ProcessInfo, error)

	// FindProcessByName finds processes by their name (exact match)
	FindProcessByName(name string) ([]ProcessInfo, error)

	// FindProcessByNameSubstring returns the first process, in snapshot order,
	// whose name contains substr (case-sensitive)
	FindProcessByNameSubstring(substr string) (*ProcessInfo, error)

	// FindProcessByNamePattern finds processes by their name (pattern match)
	FindProcessByNamePattern(pattern string) ([]ProcessInfo, error)

	// FindAllProcesses returns information about all running processes
	FindAllProcesses() ([]ProcessInfo, error)

	// FindThreads returns the threads owned by pid
	FindThreads(pid ProcessID) ([]ThreadInfo, error)

	// FindModules returns the modules loaded into pid
	FindModules(pid ProcessID) ([]ModuleInfo, error)

	// Process hierarchy operations
	ProcessHierarchy
}

// ProcessHierarchy defines operations for working with process relationships
type ProcessHierarchy interface {
	// FindChildProcesses finds all child processes of a given PID
	FindChildProcesses(parentPID ProcessID) ([]ProcessInfo, error)

	// FindDescendantProcesses finds all descendant processes (children, grandchildren, etc.) of a given PID
	FindDescendantProcesses(rootPID ProcessID) ([]ProcessInfo, error)

	// GetProcessTree returns a tree-like representation of processes starting from a root PID
	GetProcessTree(rootPID ProcessID) (*ProcessTreeNode, error)
}
