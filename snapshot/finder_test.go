package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procwalk/process"
	"procwalk/winapi"
	"procwalk/winapi/winapitest"
)

func TestFindProcessByNameSubstringFirstMatchWins(t *testing.T) {
	sys := winapitest.New(
		winapitest.Process{PID: 10, Name: "alpha"},
		winapitest.Process{PID: 11, Name: "beta-helper"},
		winapitest.Process{PID: 12, Name: "beta"},
	)
	f := NewProcessFinder(sys)

	p, err := f.FindProcessByNameSubstring("beta")
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(11), p.PID)
	assert.Equal(t, 0, sys.OpenSnapshots())

	_, err = f.FindProcessByNameSubstring("Beta")
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestFindProcessByNameSubstringSurfacesEnumerationFailure(t *testing.T) {
	sys := winapitest.New(winapitest.Process{PID: 10, Name: "alpha"}, winapitest.Process{PID: 11, Name: "beta"})
	sys.StepErr = map[int]error{1: winapi.ERROR_ACCESS_DENIED}

	_, err := NewProcessFinder(sys).FindProcessByNameSubstring("beta")
	assert.ErrorIs(t, err, winapi.ERROR_ACCESS_DENIED)
	assert.NotErrorIs(t, err, process.ErrNotFound)
}

func TestFindProcessByPID(t *testing.T) {
	f := NewProcessFinder(sampleSystem())

	p, err := f.FindProcessByPID(12)
	require.NoError(t, err)
	assert.Equal(t, "beta", p.Name)

	_, err = f.FindProcessByPID(77)
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestFindProcessByNameAndPattern(t *testing.T) {
	f := NewProcessFinder(sampleSystem())

	exact, err := f.FindProcessByName("beta")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, process.ProcessID(12), exact[0].PID)

	matched, err := f.FindProcessByNamePattern(`^beta`)
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	_, err = f.FindProcessByNamePattern(`(`)
	assert.Error(t, err)
}

func TestFindThreadsAndModules(t *testing.T) {
	f := NewProcessFinder(sampleSystem())

	threads, err := f.FindThreads(11)
	require.NoError(t, err)
	assert.Len(t, threads, 2)

	modules, err := f.FindModules(12)
	require.NoError(t, err)
	assert.Len(t, modules, 3)
}

func TestProcessHierarchy(t *testing.T) {
	sys := winapitest.New(
		winapitest.Process{PID: 0, PPID: 0, Name: "Idle"},
		winapitest.Process{PID: 4, PPID: 0, Name: "System"},
		winapitest.Process{PID: 10, PPID: 4, Name: "alpha"},
		winapitest.Process{PID: 11, PPID: 10, Name: "beta-helper"},
		winapitest.Process{PID: 12, PPID: 10, Name: "beta"},
		winapitest.Process{PID: 13, PPID: 12, Name: "gamma"},
	)
	f := NewProcessFinder(sys)

	children, err := f.FindChildProcesses(10)
	require.NoError(t, err)
	assert.Len(t, children, 2)

	idleChildren, err := f.FindChildProcesses(0)
	require.NoError(t, err)
	require.Len(t, idleChildren, 1)
	assert.Equal(t, "System", idleChildren[0].Name)

	desc, err := f.FindDescendantProcesses(10)
	require.NoError(t, err)
	var names []string
	for _, p := range desc {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"beta-helper", "beta", "gamma"}, names)

	tree, err := f.GetProcessTree(0)
	require.NoError(t, err)
	assert.Equal(t, "Idle", tree.Process.Name)
	require.Len(t, tree.Children, 1)
	system := tree.Children[0]
	require.Len(t, system.Children, 1)
	alpha := system.Children[0]
	assert.Len(t, alpha.Children, 2)

	_, err = f.GetProcessTree(404)
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestProcessHierarchyParentCycle(t *testing.T) {
	// pid reuse can make two processes each other's parent
	sys := winapitest.New(
		winapitest.Process{PID: 20, PPID: 21, Name: "a"},
		winapitest.Process{PID: 21, PPID: 20, Name: "b"},
	)
	f := NewProcessFinder(sys)

	desc, err := f.FindDescendantProcesses(20)
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, "b", desc[0].Name)

	tree, err := f.GetProcessTree(20)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Empty(t, tree.Children[0].Children)
}
