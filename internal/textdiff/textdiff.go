// Package textdiff renders git-style unified diffs of two texts.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DevNull labels the missing side of a created or deleted file
const DevNull = "/dev/null"

// Result is a rendered diff and its line counts
type Result struct {
	Text    string
	Added   int
	Removed int
}

// Empty reports whether the two texts were identical
func (r Result) Empty() bool { return r.Added == 0 && r.Removed == 0 }

type lineOp struct {
	kind diffmatchpatch.Operation
	text string
	eol  bool
}

// lineOps diffs old and new line by line
func lineOps(oldText, newText string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			ops = append(ops, lineOp{
				kind: d.Type,
				text: strings.TrimSuffix(line, "\n"),
				eol:  strings.HasSuffix(line, "\n"),
			})
		}
	}
	return ops
}

// Unified renders a unified diff of oldText and newText with context lines
// around each hunk. Hunks closer than 2*context lines are merged. Labels
// are printed as given, so callers add "a/" and "b/" prefixes themselves.
func Unified(oldLabel, newLabel, oldText, newText string, context int) Result {
	var added, removed int
	ops := lineOps(oldText, newText)
	n := len(ops)

	// oldNo[k] and newNo[k] count the lines consumed before ops[k]
	oldNo := make([]int, n+1)
	newNo := make([]int, n+1)
	for k, op := range ops {
		oldNo[k+1], newNo[k+1] = oldNo[k], newNo[k]
		switch op.kind {
		case diffmatchpatch.DiffEqual:
			oldNo[k+1]++
			newNo[k+1]++
		case diffmatchpatch.DiffDelete:
			oldNo[k+1]++
			removed++
		case diffmatchpatch.DiffInsert:
			newNo[k+1]++
			added++
		}
	}
	if added == 0 && removed == 0 {
		return Result{}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldLabel, newLabel)

	for i := 0; i < n; {
		if ops[i].kind == diffmatchpatch.DiffEqual {
			i++
			continue
		}

		start := max(0, i-context)
		last := i
		for j := i; j < n; {
			if ops[j].kind != diffmatchpatch.DiffEqual {
				last = j
				j++
				continue
			}
			k := j
			for k < n && ops[k].kind == diffmatchpatch.DiffEqual {
				k++
			}
			if k == n || k-j > 2*context {
				break
			}
			j = k
		}
		stop := min(n, last+1+context)

		fmt.Fprintf(&sb, "@@ -%s +%s @@\n",
			hunkRange(oldNo[start], oldNo[stop]-oldNo[start]),
			hunkRange(newNo[start], newNo[stop]-newNo[start]))

		for k := start; k < stop; k++ {
			switch ops[k].kind {
			case diffmatchpatch.DiffEqual:
				sb.WriteByte(' ')
			case diffmatchpatch.DiffDelete:
				sb.WriteByte('-')
			case diffmatchpatch.DiffInsert:
				sb.WriteByte('+')
			}
			sb.WriteString(ops[k].text)
			sb.WriteByte('\n')
			if !ops[k].eol {
				sb.WriteString("\\ No newline at end of file\n")
			}
		}
		i = stop
	}

	return Result{Text: sb.String(), Added: added, Removed: removed}
}

// hunkRange formats "start,count" where start is 1-based, or the line
// before the hunk when count is zero
func hunkRange(before, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", before)
	}
	if count == 1 {
		return fmt.Sprintf("%d", before+1)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}
