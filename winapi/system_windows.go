//go:build windows

package winapi

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	moddbghelp = windows.NewLazySystemDLL("dbghelp.dll")

	procSymInitializeW = moddbghelp.NewProc("SymInitializeW")
	procSymFromNameW   = moddbghelp.NewProc("SymFromNameW")
	procSymCleanup     = moddbghelp.NewProc("SymCleanup")
)

const maxSymName = 2000

// symbolInfo is SYMBOL_INFOW followed by room for the symbol name.
type symbolInfo struct {
	SizeOfStruct uint32
	TypeIndex    uint32
	Reserved     [2]uint64
	Index        uint32
	Size         uint32
	ModBase      uint64
	Flags        uint32
	_            uint32 // dbghelp aligns Value to 8 on 386 as well
	Value        uint64
	Address      uint64
	Register     uint32
	Scope        uint32
	Tag          uint32
	NameLen      uint32
	MaxNameLen   uint32
	Name         [maxSymName]uint16
}

// sizeof(SYMBOL_INFOW) with its one-element Name array.
const symbolInfoSize = 88

type windowsSystem struct{}

// NewSystem returns the live Windows binding.
func NewSystem() System {
	return windowsSystem{}
}

func (windowsSystem) CreateToolhelp32Snapshot(flags uint32, pid uint32) (Handle, error) {
	h, err := windows.CreateToolhelp32Snapshot(flags, pid)
	if err != nil {
		return InvalidHandle, err
	}
	return Handle(h), nil
}

func (windowsSystem) Process32First(snapshot Handle, entry *ProcessEntry32) error {
	return windows.Process32First(windows.Handle(snapshot), (*windows.ProcessEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) Process32Next(snapshot Handle, entry *ProcessEntry32) error {
	return windows.Process32Next(windows.Handle(snapshot), (*windows.ProcessEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) Thread32First(snapshot Handle, entry *ThreadEntry32) error {
	return windows.Thread32First(windows.Handle(snapshot), (*windows.ThreadEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) Thread32Next(snapshot Handle, entry *ThreadEntry32) error {
	return windows.Thread32Next(windows.Handle(snapshot), (*windows.ThreadEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) Module32First(snapshot Handle, entry *ModuleEntry32) error {
	return windows.Module32First(windows.Handle(snapshot), (*windows.ModuleEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) Module32Next(snapshot Handle, entry *ModuleEntry32) error {
	return windows.Module32Next(windows.Handle(snapshot), (*windows.ModuleEntry32)(unsafe.Pointer(entry)))
}

func (windowsSystem) CloseHandle(h Handle) error {
	return windows.CloseHandle(windows.Handle(h))
}

func (windowsSystem) OpenProcess(access uint32, inherit bool, pid uint32) (Handle, error) {
	h, err := windows.OpenProcess(access, inherit, pid)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (windowsSystem) GetProcessId(process Handle) (uint32, error) {
	return windows.GetProcessId(windows.Handle(process))
}

func (windowsSystem) EnumProcessModules(process Handle, modules []Handle) (uint32, error) {
	if len(modules) == 0 {
		return 0, ERROR_INSUFFICIENT_BUFFER
	}
	var needed uint32
	err := windows.EnumProcessModules(
		windows.Handle(process),
		(*windows.Handle)(unsafe.Pointer(&modules[0])),
		uint32(len(modules))*HandleSize,
		&needed,
	)
	return needed, err
}

func (windowsSystem) GetModuleInformation(process Handle, module Handle) (ModuleInfo, error) {
	var mi windows.ModuleInfo
	err := windows.GetModuleInformation(windows.Handle(process), windows.Handle(module), &mi, uint32(unsafe.Sizeof(mi)))
	if err != nil {
		return ModuleInfo{}, err
	}
	return ModuleInfo{BaseOfDll: mi.BaseOfDll, SizeOfImage: mi.SizeOfImage, EntryPoint: mi.EntryPoint}, nil
}

func (windowsSystem) GetModuleBaseName(process Handle, module Handle, buf []uint16) (int, error) {
	if len(buf) == 0 {
		return 0, ERROR_INSUFFICIENT_BUFFER
	}
	err := windows.GetModuleBaseName(windows.Handle(process), windows.Handle(module), &buf[0], uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	return terminated(buf), nil
}

func (windowsSystem) GetModuleFileNameEx(process Handle, module Handle, buf []uint16) (int, error) {
	if len(buf) == 0 {
		return 0, ERROR_INSUFFICIENT_BUFFER
	}
	err := windows.GetModuleFileNameEx(windows.Handle(process), windows.Handle(module), &buf[0], uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	return terminated(buf), nil
}

func (windowsSystem) QueryFullProcessImageName(process Handle, buf []uint16) (int, error) {
	if len(buf) == 0 {
		return 0, ERROR_INSUFFICIENT_BUFFER
	}
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(windows.Handle(process), 0, &buf[0], &size); err != nil {
		return 0, err
	}
	return int(size), nil
}

func (windowsSystem) WriteProcessMemory(process Handle, addr uintptr, data []byte) (uintptr, error) {
	if len(data) == 0 {
		return 0, nil
	}
	var written uintptr
	err := windows.WriteProcessMemory(windows.Handle(process), addr, &data[0], uintptr(len(data)), &written)
	return written, err
}

func (windowsSystem) SymInitialize(process Handle, searchPath string, invadeProcess bool) error {
	var path *uint16
	if searchPath != "" {
		p, err := windows.UTF16PtrFromString(searchPath)
		if err != nil {
			return err
		}
		path = p
	}
	var invade uintptr
	if invadeProcess {
		invade = 1
	}
	r1, _, e1 := procSymInitializeW.Call(uintptr(process), uintptr(unsafe.Pointer(path)), invade)
	if r1 == 0 {
		return e1
	}
	return nil
}

func (windowsSystem) SymFromName(process Handle, name string) (uint64, error) {
	n, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	si := &symbolInfo{SizeOfStruct: symbolInfoSize, MaxNameLen: maxSymName}
	r1, _, e1 := procSymFromNameW.Call(uintptr(process), uintptr(unsafe.Pointer(n)), uintptr(unsafe.Pointer(si)))
	if r1 == 0 {
		return 0, e1
	}
	return si.Address, nil
}

func (windowsSystem) SymCleanup(process Handle) error {
	r1, _, e1 := procSymCleanup.Call(uintptr(process))
	if r1 == 0 {
		return e1
	}
	return nil
}

func (windowsSystem) FormatMessage(code uint32) string {
	buf := make([]uint16, 512)
	n, err := windows.FormatMessage(
		windows.FORMAT_MESSAGE_FROM_SYSTEM|windows.FORMAT_MESSAGE_IGNORE_INSERTS,
		0, code, 0, buf, nil,
	)
	if err != nil || n == 0 {
		return ""
	}
	return strings.TrimSpace(windows.UTF16ToString(buf[:n]))
}

func terminated(buf []uint16) int {
	for i, v := range buf {
		if v == 0 {
			return i
		}
	}
	return len(buf)
}
