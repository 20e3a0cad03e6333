// Package loader reads the hex memory-image text format consumed by the
// simulator: an optional sequence of "@addr" lines that set the load
// cursor, followed by whitespace-separated two-digit hex byte values
// that are written starting at the cursor and advance it by one each.
// Blank lines are ignored rather than ending the scan.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rv32toma/tomasulo/emu"
)

// Load reads a hex image from r and writes its bytes into mem, returning
// the address set by the first "@" directive in the image (or 0 if there
// is none), which callers use as the initial program counter.
func Load(r io.Reader, mem *emu.Memory) (entry uint32, err error) {
	scanner := bufio.NewScanner(r)
	var addr uint32
	sawEntry := false

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // blank lines are ignored, not a scan terminator
		}

		if strings.HasPrefix(line, "@") {
			v, perr := strconv.ParseUint(strings.TrimPrefix(line, "@"), 16, 32)
			if perr != nil {
				return 0, fmt.Errorf("loader: line %d: invalid address directive %q: %w", lineNo, line, perr)
			}
			addr = uint32(v)
			if !sawEntry {
				entry = addr
				sawEntry = true
			}
			continue
		}

		for _, tok := range strings.Fields(line) {
			b, perr := strconv.ParseUint(tok, 16, 8)
			if perr != nil {
				return 0, fmt.Errorf("loader: line %d: invalid byte %q: %w", lineNo, tok, perr)
			}
			mem.LoadByte(addr, uint8(b))
			addr++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("loader: %w", err)
	}

	return entry, nil
}
