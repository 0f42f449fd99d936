package process

import (
	"fmt"
	"strconv"
	"strings"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ParseProcessMemoryAddress parses a hex address, with or without a 0x
// prefix. Backtick separators as printed by WinDbg (00007ff6`12340000) are
// accepted.
func ParseProcessMemoryAddress(s string) (ProcessMemoryAddress, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), "`", "")
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" {
		return 0, fmt.Errorf("empty address %q", s)
	}
	v, err := strconv.ParseUint(clean, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return ProcessMemoryAddress(v), nil
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}
