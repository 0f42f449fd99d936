//go:build !windows

package winapi

type unsupportedSystem struct{}

// NewSystem returns a binding whose every call fails with
// ERROR_CALL_NOT_IMPLEMENTED; procwalk only targets Windows.
func NewSystem() System {
	return unsupportedSystem{}
}

func (unsupportedSystem) CreateToolhelp32Snapshot(uint32, uint32) (Handle, error) {
	return InvalidHandle, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Process32First(Handle, *ProcessEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Process32Next(Handle, *ProcessEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Thread32First(Handle, *ThreadEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Thread32Next(Handle, *ThreadEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Module32First(Handle, *ModuleEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) Module32Next(Handle, *ModuleEntry32) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) CloseHandle(Handle) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) OpenProcess(uint32, bool, uint32) (Handle, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) GetProcessId(Handle) (uint32, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) EnumProcessModules(Handle, []Handle) (uint32, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) GetModuleInformation(Handle, Handle) (ModuleInfo, error) {
	return ModuleInfo{}, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) GetModuleBaseName(Handle, Handle, []uint16) (int, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) GetModuleFileNameEx(Handle, Handle, []uint16) (int, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) QueryFullProcessImageName(Handle, []uint16) (int, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) WriteProcessMemory(Handle, uintptr, []byte) (uintptr, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) SymInitialize(Handle, string, bool) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) SymFromName(Handle, string) (uint64, error) {
	return 0, ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) SymCleanup(Handle) error {
	return ERROR_CALL_NOT_IMPLEMENTED
}

func (unsupportedSystem) FormatMessage(uint32) string {
	return ""
}
