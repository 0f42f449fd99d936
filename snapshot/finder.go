package snapshot

import (
	"fmt"
	"regexp"
	"strings"

	"procwalk/process"
	"procwalk/winapi"
)

// Finder implements process.ProcessFinder on top of toolhelp snapshots.
// Every call takes a fresh snapshot.
type Finder struct {
	tl winapi.Toolhelp
}

// NewProcessFinder creates a Finder backed by tl
func NewProcessFinder(tl winapi.Toolhelp) *Finder {
	return &Finder{tl: tl}
}

var _ process.ProcessFinder = (*Finder)(nil)

// first returns the first process accepted by match and stops enumerating
// as soon as it is found.
func (f *Finder) first(match func(process.ProcessInfo) bool) (*process.ProcessInfo, error) {
	view, err := Processes(f.tl)
	if err != nil {
		return nil, err
	}
	for p := range view.All() {
		if match(p) {
			return &p, nil
		}
	}
	if err := view.Err(); err != nil {
		return nil, err
	}
	return nil, process.ErrNotFound
}

func (f *Finder) filter(match func(process.ProcessInfo) bool) ([]process.ProcessInfo, error) {
	view, err := Processes(f.tl)
	if err != nil {
		return nil, err
	}
	var results []process.ProcessInfo
	for p := range view.All() {
		if match(p) {
			results = append(results, p)
		}
	}
	return results, view.Err()
}

// FindProcessByPID finds a process by its PID
func (f *Finder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	p, err := f.first(func(p process.ProcessInfo) bool { return p.PID == pid })
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w", pid, err)
	}
	return p, nil
}

// FindProcessByName finds processes by their name (exact match)
func (f *Finder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return f.filter(func(p process.ProcessInfo) bool { return p.Name == name })
}

// FindProcessByNameSubstring returns the first process whose name contains substr
func (f *Finder) FindProcessByNameSubstring(substr string) (*process.ProcessInfo, error) {
	p, err := f.first(func(p process.ProcessInfo) bool { return strings.Contains(p.Name, substr) })
	if err != nil {
		return nil, fmt.Errorf("name containing %q: %w", substr, err)
	}
	return p, nil
}

// FindProcessByNamePattern finds processes by their name (pattern match)
func (f *Finder) FindProcessByNamePattern(pattern string) ([]process.ProcessInfo, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return f.filter(func(p process.ProcessInfo) bool { return re.MatchString(p.Name) })
}

// FindAllProcesses returns information about all running processes
func (f *Finder) FindAllProcesses() ([]process.ProcessInfo, error) {
	view, err := Processes(f.tl)
	if err != nil {
		return nil, err
	}
	return view.Collect()
}

// FindThreads returns the threads owned by pid
func (f *Finder) FindThreads(pid process.ProcessID) ([]process.ThreadInfo, error) {
	view, err := Threads(f.tl, pid)
	if err != nil {
		return nil, err
	}
	return view.Collect()
}

// FindModules returns the modules loaded into pid
func (f *Finder) FindModules(pid process.ProcessID) ([]process.ModuleInfo, error) {
	view, err := Modules(f.tl, pid)
	if err != nil {
		return nil, err
	}
	return view.Collect()
}

// FindChildProcesses finds all child processes of a given PID
func (f *Finder) FindChildProcesses(parentPID process.ProcessID) ([]process.ProcessInfo, error) {
	return f.filter(func(p process.ProcessInfo) bool {
		return p.PPID == parentPID && p.PID != parentPID
	})
}

// parentIndex maps each pid to its children. A process that names itself
// as parent (the idle process, pid 0) is left out so walks terminate.
func parentIndex(all []process.ProcessInfo) (map[process.ProcessID][]process.ProcessID, map[process.ProcessID]process.ProcessInfo) {
	children := make(map[process.ProcessID][]process.ProcessID)
	byPID := make(map[process.ProcessID]process.ProcessInfo, len(all))
	for _, p := range all {
		byPID[p.PID] = p
		if p.PPID != p.PID {
			children[p.PPID] = append(children[p.PPID], p.PID)
		}
	}
	return children, byPID
}

// FindDescendantProcesses finds all descendant processes (children, grandchildren, etc.) of a given PID
func (f *Finder) FindDescendantProcesses(rootPID process.ProcessID) ([]process.ProcessInfo, error) {
	all, err := f.FindAllProcesses()
	if err != nil {
		return nil, err
	}
	children, byPID := parentIndex(all)

	// Parent ids on Windows can be reused, so cycles are possible.
	visited := map[process.ProcessID]bool{rootPID: true}
	queue := append([]process.ProcessID(nil), children[rootPID]...)

	var descendants []process.ProcessInfo
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		if visited[pid] {
			continue
		}
		visited[pid] = true

		if p, ok := byPID[pid]; ok {
			descendants = append(descendants, p)
			queue = append(queue, children[pid]...)
		}
	}
	return descendants, nil
}

// GetProcessTree returns a tree-like representation of processes starting from a root PID
func (f *Finder) GetProcessTree(rootPID process.ProcessID) (*process.ProcessTreeNode, error) {
	all, err := f.FindAllProcesses()
	if err != nil {
		return nil, err
	}
	children, byPID := parentIndex(all)

	root, ok := byPID[rootPID]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", rootPID, process.ErrNotFound)
	}
	return buildProcessTree(root, children, byPID, map[process.ProcessID]bool{}), nil
}

func buildProcessTree(p process.ProcessInfo, children map[process.ProcessID][]process.ProcessID, byPID map[process.ProcessID]process.ProcessInfo, seen map[process.ProcessID]bool) *process.ProcessTreeNode {
	seen[p.PID] = true
	node := &process.ProcessTreeNode{
		Process:  p,
		Children: []*process.ProcessTreeNode{},
	}
	for _, pid := range children[p.PID] {
		if seen[pid] {
			continue
		}
		if child, ok := byPID[pid]; ok {
			node.Children = append(node.Children, buildProcessTree(child, children, byPID, seen))
		}
	}
	return node
}
