package process_handle

import (
	"fmt"
	"sync"

	"procwalk/process"
	"procwalk/winapi"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// initialModuleSlots is the EnumProcessModules buffer size of the first attempt.
const initialModuleSlots = 64

// WindowsProcess implements the process.Process interface over an opened process handle
type WindowsProcess struct {
	pid     process.ProcessID
	handle  winapi.Handle
	symbols bool
	sys     winapi.System
	log     *logger.Logger
	mu      sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

func openLogger(pid process.ProcessID) *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
}

func closedLogger() *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
}

func (p *WindowsProcess) osError(op string, err error) error {
	return process.NewOSError(op, err, p.sys)
}

// live returns the handle, or ErrProcessNotOpen after Close.
func (p *WindowsProcess) live() (winapi.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return 0, process.ErrProcessNotOpen
	}
	return p.handle, nil
}

// activeLog returns the logger for the current state; Close swaps it.
func (p *WindowsProcess) activeLog() *logger.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

// Close ends the symbol session and closes the handle. Calling it again is a no-op.
func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}

	if p.symbols {
		if err := p.sys.SymCleanup(p.handle); err != nil {
			p.log.Debugln("SymCleanup failed:", err)
		}
		p.symbols = false
	}

	err := p.sys.CloseHandle(p.handle)
	p.handle = 0

	p.log.Infoln("Process closed")
	p.log = closedLogger()

	if err != nil {
		return p.osError("CloseHandle", err)
	}
	return nil
}

// GetPID returns the process ID
func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Handle returns the native handle, or 0 once closed.
func (p *WindowsProcess) Handle() winapi.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// ModuleName returns the file name of the module whose base address is base.
// Names longer than MAX_PATH are truncated.
func (p *WindowsProcess) ModuleName(base process.ProcessMemoryAddress) (string, error) {
	handle, err := p.live()
	if err != nil {
		return "", err
	}
	return p.moduleName(handle, winapi.Handle(base))
}

func (p *WindowsProcess) moduleName(handle, module winapi.Handle) (string, error) {
	buf := make([]uint16, winapi.MAX_PATH)
	n, err := p.sys.GetModuleBaseName(handle, module, buf)
	if err != nil || n == 0 {
		return "", p.osError("GetModuleBaseName", err)
	}
	return winapi.UTF16ToString(buf[:n]), nil
}

// ModulePath returns the full path of the module whose base address is base.
// Paths longer than MAX_PATH are truncated.
func (p *WindowsProcess) ModulePath(base process.ProcessMemoryAddress) (string, error) {
	handle, err := p.live()
	if err != nil {
		return "", err
	}
	return p.modulePath(handle, winapi.Handle(base))
}

func (p *WindowsProcess) modulePath(handle, module winapi.Handle) (string, error) {
	buf := make([]uint16, winapi.MAX_PATH)
	n, err := p.sys.GetModuleFileNameEx(handle, module, buf)
	if err != nil || n == 0 {
		return "", p.osError("GetModuleFileNameEx", err)
	}
	return winapi.UTF16ToString(buf[:n]), nil
}

// ImagePath returns the full path of the process executable.
func (p *WindowsProcess) ImagePath() (string, error) {
	handle, err := p.live()
	if err != nil {
		return "", err
	}
	buf := make([]uint16, winapi.MAX_PATH)
	n, err := p.sys.QueryFullProcessImageName(handle, buf)
	if err != nil || n == 0 {
		return "", p.osError("QueryFullProcessImageName", err)
	}
	return winapi.UTF16ToString(buf[:n]), nil
}

// ListModules lists the loaded modules through EnumProcessModules.
func (p *WindowsProcess) ListModules() ([]process.ModuleInfo, error) {
	return p.listModules(false)
}

// ListModulesWithPaths is ListModules with the full path of every module.
func (p *WindowsProcess) ListModulesWithPaths() ([]process.ModuleInfo, error) {
	return p.listModules(true)
}

// moduleHandles asks for the module list with a small buffer first and, if
// that fails or comes back short, once more with the size the system
// reported. Modules loaded between the two calls are not chased.
func (p *WindowsProcess) moduleHandles(handle winapi.Handle) ([]winapi.Handle, error) {
	modules := make([]winapi.Handle, initialModuleSlots)
	needed, err := p.sys.EnumProcessModules(handle, modules)
	if err == nil && needed <= uint32(len(modules))*winapi.HandleSize {
		return modules[:needed/winapi.HandleSize], nil
	}

	slots := int(needed / winapi.HandleSize)
	if slots < len(modules) {
		slots = len(modules)
	}
	p.activeLog().Debugln("EnumProcessModules retrying with", slots, "slots, first attempt:", err)

	modules = make([]winapi.Handle, slots)
	needed, err = p.sys.EnumProcessModules(handle, modules)
	if err != nil {
		return nil, p.osError("EnumProcessModules", err)
	}
	count := min(int(needed/winapi.HandleSize), len(modules))
	return modules[:count], nil
}

func (p *WindowsProcess) listModules(withPaths bool) ([]process.ModuleInfo, error) {
	handle, err := p.live()
	if err != nil {
		return nil, err
	}

	handles, err := p.moduleHandles(handle)
	if err != nil {
		return nil, err
	}
	log := p.activeLog()

	result := make([]process.ModuleInfo, 0, len(handles))
	for _, module := range handles {
		if module == 0 {
			break
		}

		info, err := p.sys.GetModuleInformation(handle, module)
		if err != nil {
			log.Debugln("skipping module", fmt.Sprintf("0x%X", uintptr(module)), "GetModuleInformation:", err)
			continue
		}
		name, err := p.moduleName(handle, module)
		if err != nil {
			log.Debugln("skipping module", fmt.Sprintf("0x%X", uintptr(module)), err)
			continue
		}

		m := process.ModuleInfo{
			Name: name,
			Base: process.ProcessMemoryAddress(uint64(info.BaseOfDll)),
			Size: process.ProcessMemorySize(info.SizeOfImage),
		}
		if withPaths {
			if m.Path, err = p.modulePath(handle, module); err != nil {
				log.Debugln("no path for", name, err)
			}
		}
		result = append(result, m)
	}

	return result, nil
}

// ResolveSymbol resolves a "module!symbol" name through the symbol session
// started when the process was opened. It reports false when the symbol is
// unknown, resolves to zero, or no session could be started.
func (p *WindowsProcess) ResolveSymbol(name string) (process.ProcessMemoryAddress, bool) {
	p.mu.Lock()
	handle, symbols, log := p.handle, p.symbols, p.log
	p.mu.Unlock()

	if handle == 0 || !symbols || name == "" {
		return 0, false
	}

	addr, err := p.sys.SymFromName(handle, name)
	if err != nil || addr == 0 {
		log.Debugln("symbol", name, "not resolved:", err)
		return 0, false
	}
	return process.ProcessMemoryAddress(addr), true
}

// WriteMemory writes data at addr. A short write is not an error: the byte
// count says how much landed. The error is set only when nothing was
// written. Page protection is left untouched, so read-only pages fail.
func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) (process.ProcessMemorySize, error) {
	handle, err := p.live()
	if err != nil {
		return 0, err
	}

	if len(data) == 0 {
		return 0, nil
	}

	written, err := p.sys.WriteProcessMemory(handle, uintptr(addr), data)
	if written > 0 {
		if err != nil {
			p.activeLog().Debugln("partial write at", addr.ToString(), written, "of", len(data), "bytes:", err)
		}
		return process.ProcessMemorySize(written), nil
	}
	if err != nil {
		return 0, p.osError("WriteProcessMemory", err)
	}
	return 0, nil
}
