package roster

import (
	"fmt"
	"strings"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

// DefaultPreviewRows caps how many rows a preview renders.
const DefaultPreviewRows = 300

// Preview renders up to max rows as "col=value, col=value" lines in header
// order. A non-positive max selects DefaultPreviewRows.
func Preview(r domain.Roster, max int) []string {
	if max <= 0 {
		max = DefaultPreviewRows
	}
	n := len(r.Rows)
	if n > max {
		n = max
	}

	lines := make([]string, 0, n)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.Reset()
		for j, col := range r.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", col, r.Rows[i][col])
		}
		lines = append(lines, b.String())
	}
	return lines
}
