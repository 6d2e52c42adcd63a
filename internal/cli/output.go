package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caura/recon-engine/internal/domain/report"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(platform string) {
	fmt.Printf("recon-engine: %s reconciliation\n", platform)
}

// PrintReportSummary prints the per-run summary block
func PrintReportSummary(rep *report.ReconciliationReport) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run: %s\n", rep.RunID)
	fmt.Printf("Summary: Total=%d Matched=%d Unmatched=%d Review=%d\n",
		rep.TotalTransactions,
		rep.MatchedTransactions,
		rep.UnmatchedTransactions,
		rep.RequiresReview)
	fmt.Printf("Confidence: high=%d medium=%d low=%d\n",
		rep.ConfidenceDistribution["high"],
		rep.ConfidenceDistribution["medium"],
		rep.ConfidenceDistribution["low"])

	if len(rep.MatchMethodBreakdown) > 0 {
		fmt.Print("Methods:")
		for _, method := range sortedKeys(rep.MatchMethodBreakdown) {
			fmt.Printf(" %s=%d", method, rep.MatchMethodBreakdown[method])
		}
		fmt.Println()
	}
	fmt.Printf("Processing time: %.2fs (match rate %.1f%%)\n",
		rep.ProcessingTime, rep.MatchRate()*100)
}

// PrintAllTimeStats prints cumulative stats from the run history
func PrintAllTimeStats(store storage.Repository) {
	if store == nil {
		return
	}
	stats, err := store.GetStats()
	if err != nil || stats == nil || stats.TotalRuns == 0 {
		return
	}
	fmt.Printf("\nAll-Time Stats: Runs=%d Transactions=%d Matched=%d MatchRate=%.1f%%\n",
		stats.TotalRuns,
		stats.TotalTransactions,
		stats.TotalMatched,
		stats.AvgMatchRate*100)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
