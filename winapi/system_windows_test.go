//go:build windows

package winapi

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestLayoutsMatchSystemStructs(t *testing.T) {
	assert.Equal(t, unsafe.Sizeof(windows.ProcessEntry32{}), unsafe.Sizeof(ProcessEntry32{}))
	assert.Equal(t, unsafe.Sizeof(windows.ThreadEntry32{}), unsafe.Sizeof(ThreadEntry32{}))
	assert.Equal(t, unsafe.Sizeof(windows.ModuleEntry32{}), unsafe.Sizeof(ModuleEntry32{}))
	assert.Equal(t, unsafe.Offsetof(windows.ModuleEntry32{}.ExePath), unsafe.Offsetof(ModuleEntry32{}.ExePath))
	assert.Equal(t, uintptr(symbolInfoSize), unsafe.Offsetof(symbolInfo{}.Name)+4)
}

func TestSymbolInfoOffsets(t *testing.T) {
	// SYMBOL_INFOW offsets are the same for x86 and x64 dbghelp
	var si symbolInfo
	assert.Equal(t, uintptr(32), unsafe.Offsetof(si.ModBase))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(si.Value))
	assert.Equal(t, uintptr(56), unsafe.Offsetof(si.Address))
	assert.Equal(t, uintptr(80), unsafe.Offsetof(si.MaxNameLen))
	assert.Equal(t, uintptr(84), unsafe.Offsetof(si.Name))
}

func TestFormatMessage(t *testing.T) {
	sys := NewSystem()
	assert.NotEmpty(t, sys.FormatMessage(uint32(ERROR_ACCESS_DENIED)))
	assert.Empty(t, sys.FormatMessage(0xDEADBEEF))
}

func TestSelfImageName(t *testing.T) {
	sys := NewSystem()
	h, err := sys.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(os.Getpid()))
	require.NoError(t, err)
	defer sys.CloseHandle(h)

	pid, err := sys.GetProcessId(h)
	require.NoError(t, err)
	assert.Equal(t, uint32(os.Getpid()), pid)

	buf := make([]uint16, MAX_PATH)
	n, err := sys.QueryFullProcessImageName(h, buf)
	require.NoError(t, err)
	assert.NotZero(t, n)
}
