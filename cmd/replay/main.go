package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	persistlog "pastewarden.ai/internal/persistence/log"
	"pastewarden.ai/internal/sim/host"
	"pastewarden.ai/internal/sim/tuning"
)

func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning.yaml the decisions were made under")
		verbose    = flag.Bool("v", false, "print every violating record")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	dir := filepath.Join(*dataDir, "decisions")
	files, err := persistlog.ListDecisionFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list decisions:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no decision files found in", dir)
		os.Exit(1)
	}

	s := newSummary(tune.InventoryDefaultAllowed)
	var bytes uint64
	for _, path := range files {
		if fi, err := os.Stat(path); err == nil {
			bytes += uint64(fi.Size())
		}
		err := persistlog.ReadDecisions(path, func(r host.Record) error {
			if !s.add(r) && *verbose {
				fmt.Printf("violation %s: acquirer=%s consumer=%s best=%s source=%s\n",
					r.ID, r.AcquirerID, r.ConsumerID, r.BestInventory, r.Source)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("read %s decisions from %d files (%s)\n", humanize.Comma(int64(s.total)), len(files), humanize.Bytes(bytes))
	for _, src := range s.sources() {
		fmt.Printf("  %-10s %s\n", src, humanize.Comma(int64(s.bySource[src])))
	}
	if s.violations > 0 {
		fmt.Printf("replay FAILED: %s records withheld inventory without an override source\n", humanize.Comma(int64(s.violations)))
		os.Exit(1)
	}
	fmt.Println("replay ok")
}

type summary struct {
	defaultAllowed bool

	total      int
	violations int
	bySource   map[string]int
}

func newSummary(defaultAllowed bool) *summary {
	return &summary{defaultAllowed: defaultAllowed, bySource: map[string]int{}}
}

// add counts r and reports whether it passes the inventory safety check.
func (s *summary) add(r host.Record) bool {
	s.total++
	s.bySource[r.Source]++
	if r.CheckInventorySafety(s.defaultAllowed) {
		return true
	}
	s.violations++
	return false
}

func (s *summary) sources() []string {
	out := make([]string, 0, len(s.bySource))
	for k := range s.bySource {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
