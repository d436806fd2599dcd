package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/raphaelgruber/replan-rag/internal/metrics"
)

// printSnapshot displays the timing summary of this invocation.
func printSnapshot(w io.Writer, snap metrics.Snapshot) {
	if len(snap.Operations) == 0 && len(snap.Outcomes) == 0 {
		return
	}

	fmt.Fprintf(w, "\nTimings (%.1f seconds)\n", snap.UptimeSeconds)
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	for _, op := range snap.Operations {
		fmt.Fprintf(w, "%s:\n", op.Name)
		printOpStats(w, op)
		printTokenStats(w, op)
	}

	if len(snap.Outcomes) > 0 {
		kinds := make([]string, 0, len(snap.Outcomes))
		for k := range snap.Outcomes {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		fmt.Fprintf(w, "Validation outcomes:\n")
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-15s %d\n", k, snap.Outcomes[k])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total\n", *op.TotalInputTokens)
	fmt.Fprintf(w, "  Tokens Out: %d total\n", *op.TotalOutputTokens)
}
