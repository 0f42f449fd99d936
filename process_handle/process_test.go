package process_handle

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procwalk/process"
	"procwalk/winapi"
	"procwalk/winapi/winapitest"
)

func newSystem(modules int) *winapitest.System {
	return winapitest.New(
		winapitest.Process{PID: 4, Name: "System"},
		winapitest.Process{PID: 10, PPID: 4, Name: "alpha", ImagePath: `C:\apps\alpha.exe`},
		winapitest.Process{PID: 11, PPID: 10, Name: "beta-helper", ImagePath: `C:\apps\beta-helper.exe`},
		winapitest.Process{PID: 12, PPID: 10, Name: "beta", ImagePath: `C:\apps\beta.exe`, Modules: winapitest.Modules(modules)},
	)
}

func open(t *testing.T, sys *winapitest.System, pid process.ProcessID) *WindowsProcess {
	t.Helper()
	p, err := NewHelper(sys).OpenByPID(pid)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p.(*WindowsProcess)
}

func TestOpenByPID(t *testing.T) {
	sys := newSystem(3)
	p := open(t, sys, 12)

	assert.Equal(t, process.ProcessID(12), p.GetPID())
	assert.NotZero(t, p.Handle())
	assert.True(t, sys.HasSession(p.Handle()))

	path, err := p.ImagePath()
	require.NoError(t, err)
	assert.Equal(t, `C:\apps\beta.exe`, path)
}

func TestOpenByPIDUnknownProcess(t *testing.T) {
	sys := newSystem(0)
	sys.Messages[87] = "The parameter is incorrect."

	_, err := NewHelper(sys).OpenByPID(999)

	var oe *process.OSError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "OpenProcess", oe.Op)
	assert.Equal(t, uint32(87), oe.Code)
	assert.Equal(t, "The parameter is incorrect.", oe.Message)
	assert.Equal(t, 0, sys.OpenProcesses())
}

func TestOpenByNameFirstSubstringMatch(t *testing.T) {
	sys := newSystem(0)
	h := NewHelper(sys)

	p, err := h.OpenByName("beta")
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, process.ProcessID(11), p.GetPID())

	_, err = h.OpenByName("gamma")
	assert.ErrorIs(t, err, process.ErrNotFound)
	assert.Equal(t, 0, sys.OpenSnapshots())
}

func TestAdopt(t *testing.T) {
	sys := newSystem(0)
	handle := sys.Adoptable(10)

	p, err := NewHelper(sys).Adopt(handle)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(10), p.GetPID())
	assert.Equal(t, handle, p.Handle())

	require.NoError(t, p.Close())
	assert.Equal(t, 1, sys.Closed[handle])
}

func TestAdoptInvalidHandle(t *testing.T) {
	sys := newSystem(0)
	_, err := NewHelper(sys).Adopt(0xdead)
	assert.ErrorIs(t, err, winapi.ERROR_INVALID_HANDLE)
	assert.Equal(t, "GetProcessId", err.(*process.OSError).Op)
}

func TestOpenWithoutSymbolSession(t *testing.T) {
	sys := newSystem(2)
	sys.SymInitErr = winapi.ERROR_ACCESS_DENIED
	sys.Symbols["mod000.dll!Entry"] = 0x10001000

	p := open(t, sys, 12)
	assert.False(t, sys.HasSession(p.Handle()))

	_, ok := p.ResolveSymbol("mod000.dll!Entry")
	assert.False(t, ok)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.Len(t, mods, 2)

	require.NoError(t, p.Close())
}

func TestListModules(t *testing.T) {
	sys := newSystem(3)
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, 1, sys.EnumCalls)

	want := winapitest.Modules(3)
	for i, m := range mods {
		assert.Equal(t, want[i].Name, m.Name)
		assert.Equal(t, process.ProcessMemoryAddress(want[i].Handle), m.Base)
		assert.Equal(t, process.ProcessMemorySize(0x10000), m.Size)
		assert.Empty(t, m.Path)
	}

	withPaths, err := p.ListModulesWithPaths()
	require.NoError(t, err)
	require.Len(t, withPaths, 3)
	assert.Equal(t, `C:\fake\mod002.dll`, withPaths[2].Path)
}

func TestListModulesNoModules(t *testing.T) {
	sys := newSystem(0)
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.NotNil(t, mods)
	assert.Empty(t, mods)
}

func TestListModulesGrowsBufferOnce(t *testing.T) {
	sys := newSystem(100)
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.Len(t, mods, 100)
	assert.Equal(t, 2, sys.EnumCalls)
	assert.Equal(t, "mod099.dll", mods[99].Name)
}

func TestListModulesRetriesAfterFailure(t *testing.T) {
	sys := newSystem(3)
	sys.EnumErrs = []error{winapi.ERROR_INSUFFICIENT_BUFFER}
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.Len(t, mods, 3)
	assert.Equal(t, 2, sys.EnumCalls)
}

func TestListModulesRetryFails(t *testing.T) {
	sys := newSystem(3)
	sys.EnumErrs = []error{winapi.ERROR_PARTIAL_COPY, winapi.ERROR_PARTIAL_COPY}
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	assert.Nil(t, mods)
	assert.ErrorIs(t, err, winapi.ERROR_PARTIAL_COPY)
	assert.Equal(t, "EnumProcessModules", err.(*process.OSError).Op)
	assert.Equal(t, 2, sys.EnumCalls)
}

func TestListModulesStillShortAfterRetry(t *testing.T) {
	// modules loaded between the two calls are not chased
	sys := newSystem(100)
	sys.EnumNeeded = 70 * winapi.HandleSize
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.Len(t, mods, 70)
	assert.Equal(t, 2, sys.EnumCalls)
}

func TestListModulesStopsAtNullSlot(t *testing.T) {
	sys := newSystem(2)
	sys.EnumNeeded = 3 * winapi.HandleSize
	p := open(t, sys, 12)

	mods, err := p.ListModules()
	require.NoError(t, err)
	assert.Len(t, mods, 2)
	assert.Equal(t, 1, sys.EnumCalls)
}

func TestModuleNameAndPath(t *testing.T) {
	sys := newSystem(2)
	p := open(t, sys, 12)
	base := process.ProcessMemoryAddress(winapitest.Modules(2)[1].Handle)

	name, err := p.ModuleName(base)
	require.NoError(t, err)
	assert.Equal(t, "mod001.dll", name)

	path, err := p.ModulePath(base)
	require.NoError(t, err)
	assert.Equal(t, `C:\fake\mod001.dll`, path)

	_, err = p.ModuleName(0x1234)
	assert.ErrorIs(t, err, winapi.ERROR_MOD_NOT_FOUND)
}

func TestImagePathDenied(t *testing.T) {
	sys := newSystem(0)
	p := open(t, sys, 4)

	_, err := p.ImagePath()
	assert.ErrorIs(t, err, winapi.ERROR_ACCESS_DENIED)
	assert.Equal(t, uint32(5), process.ErrorCode(err))
}

func TestResolveSymbol(t *testing.T) {
	sys := newSystem(1)
	sys.Symbols["mod000.dll!Entry"] = 0x10001000
	sys.Symbols["mod000.dll!Null"] = 0
	p := open(t, sys, 12)

	addr, ok := p.ResolveSymbol("mod000.dll!Entry")
	require.True(t, ok)
	assert.Equal(t, process.ProcessMemoryAddress(0x10001000), addr)

	for _, name := range []string{"mod000.dll!Missing", "mod000.dll!Null", ""} {
		addr, ok := p.ResolveSymbol(name)
		assert.False(t, ok, name)
		assert.Zero(t, addr, name)
	}
}

func TestWriteMemory(t *testing.T) {
	sys := newSystem(0)
	p := open(t, sys, 12)

	n, err := p.WriteMemory(0x401000, []byte{0x90, 0x90, 0xC3})
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemorySize(3), n)
	require.Len(t, sys.Writes, 1)
	assert.Equal(t, uintptr(0x401000), sys.Writes[0].Addr)
	assert.Equal(t, []byte{0x90, 0x90, 0xC3}, sys.Writes[0].Data)
}

func TestWriteMemoryEmpty(t *testing.T) {
	sys := newSystem(0)
	p := open(t, sys, 12)

	n, err := p.WriteMemory(0x401000, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sys.Writes)
}

func TestWriteMemoryPartial(t *testing.T) {
	sys := newSystem(0)
	sys.WriteLimit = 2
	p := open(t, sys, 12)

	n, err := p.WriteMemory(0x401000, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemorySize(2), n)
}

func TestWriteMemoryNothingWritten(t *testing.T) {
	sys := newSystem(0)
	sys.WriteLimit = 0
	p := open(t, sys, 12)

	n, err := p.WriteMemory(0x401000, []byte{1})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, winapi.ERROR_PARTIAL_COPY)
	assert.Equal(t, "WriteProcessMemory", err.(*process.OSError).Op)
}

func TestClose(t *testing.T) {
	sys := newSystem(1)
	p, err := NewHelper(sys).OpenByPID(12)
	require.NoError(t, err)
	handle := p.(*WindowsProcess).Handle()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, 1, sys.Closed[handle])
	assert.False(t, sys.HasSession(handle))
	assert.Equal(t, 0, sys.OpenProcesses())
	assert.Equal(t, process.ProcessID(12), p.GetPID())

	_, err = p.ImagePath()
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	_, err = p.ListModules()
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	_, err = p.WriteMemory(0x1000, []byte{1})
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	_, ok := p.ResolveSymbol("x!y")
	assert.False(t, ok)
}

// lockedSystem serializes the fake calls that race with Close.
type lockedSystem struct {
	*winapitest.System
	mu sync.Mutex
}

func (s *lockedSystem) WriteProcessMemory(h winapi.Handle, addr uintptr, data []byte) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.WriteProcessMemory(h, addr, data)
}

func (s *lockedSystem) SymFromName(h winapi.Handle, name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.SymFromName(h, name)
}

func (s *lockedSystem) SymCleanup(h winapi.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.SymCleanup(h)
}

func (s *lockedSystem) CloseHandle(h winapi.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.System.CloseHandle(h)
}

func TestCloseWhileLogging(t *testing.T) {
	fake := newSystem(0)
	fake.WriteLimit = 1
	sys := &lockedSystem{System: fake}
	p, err := NewHelper(sys).OpenByPID(12)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			// short write, logged at debug
			n, err := p.WriteMemory(0x401000, []byte{1, 2})
			if err == nil {
				assert.Equal(t, process.ProcessMemorySize(1), n)
			}
		}()
		go func() {
			defer wg.Done()
			_, ok := p.ResolveSymbol("beta.exe!Missing")
			assert.False(t, ok)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.Close())
	}()
	wg.Wait()

	assert.Equal(t, 0, fake.OpenProcesses())
	_, err = p.WriteMemory(0x401000, []byte{1})
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}
