package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartOffset is the address printed for the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// Color enables ANSI colors; off for files and tests
	Color bool

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ZeroColor         coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine:      16,
		OffsetWidth:       16,
		Color:             true,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ZeroColor:         coloransi.BrightBlack,
		NonPrintableColor: coloransi.Red,
	}
}

// Dump creates a hex dump of data
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of data to writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 16
	}

	lines := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lines >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			return
		}
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], options.StartOffset+uint64(offset), options)
		lines++
	}
}

func (o Options) paint(color coloransi.ColorCode, s string) string {
	if !o.Color {
		return s
	}
	return coloransi.Foreground(color, s)
}

// hexWidth is the printed width of n hex bytes, including the mid-line divider.
func hexWidth(n int, split bool) int {
	if n == 0 {
		return 0
	}
	w := n*3 - 1
	if split {
		w += 2
	}
	return w
}

// formatLine writes one line:
//
//	<offset>  00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f | ........ ........
func formatLine(writer io.Writer, data []byte, offset uint64, options Options) {
	half := options.BytesPerLine / 2
	split := options.BytesPerLine >= 8 && len(data) > half

	fmt.Fprint(writer, options.paint(options.OffsetColor, fmt.Sprintf("%0*x", options.OffsetWidth, offset)), "  ")

	for i, b := range data {
		if i > 0 {
			if split && i == half {
				fmt.Fprint(writer, " | ")
			} else {
				fmt.Fprint(writer, " ")
			}
		}
		color := options.HexColor
		if b == 0 {
			color = options.ZeroColor
		}
		fmt.Fprint(writer, options.paint(color, fmt.Sprintf("%02x", b)))
	}

	full := hexWidth(options.BytesPerLine, options.BytesPerLine >= 8)
	if pad := full - hexWidth(len(data), split); pad > 0 {
		fmt.Fprint(writer, strings.Repeat(" ", pad))
	}

	fmt.Fprint(writer, " | ")
	for i, b := range data {
		if split && i == half {
			fmt.Fprint(writer, " ")
		}
		if b < 0x20 || b > 0x7e {
			color := options.NonPrintableColor
			if b == 0 {
				color = options.ZeroColor
			}
			fmt.Fprint(writer, options.paint(color, "."))
			continue
		}
		fmt.Fprint(writer, string(rune(b)))
	}

	fmt.Fprintln(writer)
}
