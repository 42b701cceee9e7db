package codec

import (
	"fmt"
	"io"

	"github.com/dbgtable/inspect/pkg/value"
)

// Dump writes a human-readable listing of the graph reachable from
// root, one line per Value in id order, for inspection while debugging
// the ingester or the codec itself. Not intended for parsing.
//
// Grounded on the teacher's mc.DumpProgramFile
// (_examples/.../mc/programfiledump.go): a small dumper struct walking
// the structure section by section with plain fmt.Fprintf calls.
func Dump(w io.Writer, root *value.Value) error {
	order := flatten(root)
	ids := idsOf(order)

	fmt.Fprintf(w, "=== Debug Table (%d values) ===\n", len(order))
	for i, v := range order {
		fmt.Fprintf(w, "[%3d] %-11s name=%-20q value=%-10d children=", i, v.Tag, v.Name, v.Value)
		for j, c := range v.Children {
			if j > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%d", ids[c])
		}
		fmt.Fprintln(w)
	}
	return nil
}
