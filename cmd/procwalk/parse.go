package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"procwalk/process"
)

func parsePID(s string) (process.ProcessID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pid %q: %w", s, err)
	}
	return process.ProcessID(v), nil
}

// parseHexBytes accepts "90 90 c3", "9090C3" and "0x90,0x90,0xc3".
func parseHexBytes(args []string) ([]byte, error) {
	var b strings.Builder
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			if len(field)%2 == 1 {
				field = "0" + field
			}
			b.WriteString(field)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("no bytes given")
	}
	data, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes: %w", err)
	}
	return data, nil
}

// symbolResolver is the part of process.Process a target needs.
type symbolResolver interface {
	ResolveSymbol(name string) (process.ProcessMemoryAddress, bool)
}

// parseTarget turns an address or "module!symbol[+offset]" into an address.
func parseTarget(p symbolResolver, s string) (process.ProcessMemoryAddress, error) {
	if !strings.Contains(s, "!") {
		return process.ParseProcessMemoryAddress(s)
	}

	name, offset := s, process.ProcessMemoryAddress(0)
	if i := strings.LastIndex(s, "+"); i > strings.Index(s, "!") {
		var err error
		if offset, err = process.ParseProcessMemoryAddress(s[i+1:]); err != nil {
			return 0, err
		}
		name = s[:i]
	}

	addr, ok := p.ResolveSymbol(name)
	if !ok {
		return 0, fmt.Errorf("symbol %s: %w", name, process.ErrNotFound)
	}
	return addr + offset, nil
}
