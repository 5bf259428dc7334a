// Command analyze prints quick, human-readable statistics about archived
// game records in the logs directory. It summarizes outcomes by reason,
// wins per player and move counts, and flags records whose logs do not
// replay cleanly.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/session"
)

// Summary aggregates statistics over a set of archived games.
type Summary struct {
	Games      int
	ByReason   map[engine.Reason]int
	WinsBy     map[string]int
	Draws      int
	TotalMoves int
	Corrupt    []string
}

// analyzeDir loads every archived record under dir and folds it into a
// summary. Records that fail validation or replay are counted as corrupt
// rather than aborting the run.
func analyzeDir(dir string) (*Summary, error) {
	store, err := session.NewFileStore(dir)
	if err != nil {
		return nil, err
	}

	ids, err := store.List()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByReason: make(map[engine.Reason]int),
		WinsBy:   make(map[string]int),
	}

	for _, id := range ids {
		record, err := store.Load(id)
		if err != nil {
			summary.Corrupt = append(summary.Corrupt, id)
			continue
		}
		entries, err := record.Entries()
		if err != nil {
			summary.Corrupt = append(summary.Corrupt, id)
			continue
		}
		state, err := engine.Replay(record.GameID, entries)
		if err != nil || state.Phase != engine.PhaseEnded {
			summary.Corrupt = append(summary.Corrupt, id)
			continue
		}

		summary.Games++
		summary.ByReason[record.Result.Reason]++
		if record.Result.Winner != nil {
			summary.WinsBy[*record.Result.Winner]++
		} else {
			summary.Draws++
		}
		summary.TotalMoves += countMoves(entries)
	}

	return summary, nil
}

func countMoves(entries []engine.ActionEntry) int {
	moves := 0
	for _, e := range entries {
		if e.Kind == engine.KindMove {
			moves++
		}
	}
	return moves
}

func printSummary(summary *Summary) {
	fmt.Printf("Archived games: %d\n", summary.Games)
	if summary.Games > 0 {
		fmt.Printf("Average moves per game: %.1f\n", float64(summary.TotalMoves)/float64(summary.Games))
	}

	fmt.Println("\nOutcomes by reason:")
	reasons := make([]string, 0, len(summary.ByReason))
	for r := range summary.ByReason {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  %-8s %d\n", r, summary.ByReason[engine.Reason(r)])
	}
	if summary.Draws > 0 {
		fmt.Printf("  (of which draws: %d)\n", summary.Draws)
	}

	if len(summary.WinsBy) > 0 {
		fmt.Println("\nWins per player:")
		players := make([]string, 0, len(summary.WinsBy))
		for p := range summary.WinsBy {
			players = append(players, p)
		}
		sort.Strings(players)
		for _, p := range players {
			fmt.Printf("  %-20s %d\n", p, summary.WinsBy[p])
		}
	}

	if len(summary.Corrupt) > 0 {
		fmt.Printf("\nRecords that failed to replay (%d):\n", len(summary.Corrupt))
		for _, id := range summary.Corrupt {
			fmt.Printf("  %s\n", id)
		}
	}
}

func main() {
	dir := "logs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	summary, err := analyzeDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)

	if len(summary.Corrupt) > 0 {
		os.Exit(1)
	}
}
