package patcher

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Lang selects which guidance snippet WriteGuidance prints.
type Lang int

const (
	LangC Lang = iota
	LangRust
)

// WriteGuidance prints a ready-to-paste reservation declaration sized
// for needed bytes, for the operator to add to the firmware when Patch
// fails with ErrMagicNotFound or ErrReservationTooSmall.
//
// Grounded on patch.py's help_header: a word array whose first three
// words are the two magic halves and the region's byte size.
func WriteGuidance(w io.Writer, magic [8]byte, needed int, lang Lang, symbol string) {
	magicLo := binary.LittleEndian.Uint32(magic[0:4])
	magicHi := binary.LittleEndian.Uint32(magic[4:8])
	words := (needed + 3) / 4

	fmt.Fprintln(w, "Add the following code to reserve space for the debug table.")

	switch lang {
	case LangRust:
		fmt.Fprintln(w, "---------------- Example Code for Rust -----------------")
		fmt.Fprintf(w, "const %s_SIZE: usize = %d;\n", symbol, words)
		fmt.Fprintln(w, "#[used]")
		fmt.Fprintf(w, "pub static mut %s: [u32; %s_SIZE] = {\n", symbol, symbol)
		fmt.Fprintf(w, "    let mut data = [0u32; %s_SIZE];\n", symbol)
		fmt.Fprintf(w, "    data[0] = 0x%08x;\n", magicLo)
		fmt.Fprintf(w, "    data[1] = 0x%08x;\n", magicHi)
		fmt.Fprintf(w, "    data[2] = 4 * %s_SIZE as u32;\n", symbol)
		fmt.Fprintln(w, "    data")
		fmt.Fprintln(w, "};")
		fmt.Fprintln(w, "--------------------------------------------------------")
	default:
		fmt.Fprintln(w, "---------------- Example Code for C/C++ -----------------")
		fmt.Fprintf(w, "// Debug data table used by the inspect debug tooling\n")
		fmt.Fprintf(w, "unsigned int %s[%d] = {\n", symbol, words)
		fmt.Fprintf(w, "    0x%08x,\n", magicLo)
		fmt.Fprintf(w, "    0x%08x,\n", magicHi)
		fmt.Fprintf(w, "    sizeof(%s)\n", symbol)
		fmt.Fprintln(w, "};")
		fmt.Fprintln(w, "--------------------------------------------------------")
	}
}
