package process

// ProcessOpener defines the ways a Process can be obtained
type ProcessOpener interface {
	// OpenByPID opens the process with full access rights
	OpenByPID(pid ProcessID) (Process, error)

	// OpenByName opens the first process whose name contains substr
	OpenByName(substr string) (Process, error)
}
