// Command benchmark_parser turns `go test -bench` output for the memory
// packages into a markdown report comparing heap and OS chunk sources.
//
//	go test -bench . -benchmem ./memory/... | go run ./scripts -output bench.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult is one parsed benchmark line.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Source      string // "heap", "os" or "" for source-independent benchmarks
	Variant     string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// Comparison pairs the heap and OS runs of one operation and variant.
type Comparison struct {
	Operation string
	Variant   string
	Heap      *BenchmarkResult
	OS        *BenchmarkResult
}

// Ratio is heap ns/op divided by OS ns/op; above 1 means OS chunks were faster.
func (c Comparison) Ratio() float64 {
	if c.Heap == nil || c.OS == nil || c.OS.NsPerOp == 0 {
		return 0
	}
	return c.Heap.NsPerOp / c.OS.NsPerOp
}

var (
	inputFile  = flag.String("input", "", "Input file with benchmark output (stdin if not specified)")
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// BenchmarkMemory_FetchReturn/heap/chunk4096-8   1000000   52.1 ns/op   0 B/op   0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(compare(results), time.Now())

	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult
	for scanner.Scan() {
		line := scanner.Text()

		// go test -json wraps each output line in an event.
		var event struct{ Output string }
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
		}

		m := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		r := BenchmarkResult{Name: m[1]}
		r.Iterations, _ = strconv.Atoi(m[2])
		r.NsPerOp, _ = strconv.ParseFloat(m[3], 64)
		if m[4] != "" {
			r.BytesPerOp, _ = strconv.ParseInt(m[4], 10, 64)
		}
		if m[5] != "" {
			r.AllocsPerOp, _ = strconv.ParseInt(m[5], 10, 64)
		}
		r.Operation, r.Source, r.Variant = splitName(r.Name)
		results = append(results, r)
	}
	return results
}

// splitName splits Benchmark<Op>[/<source>][/<variant>]-<procs>.
func splitName(name string) (op, source, variant string) {
	name = strings.TrimPrefix(name, "Benchmark")
	if i := strings.LastIndex(name, "-"); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}
	parts := strings.Split(name, "/")
	op = parts[0]
	rest := parts[1:]
	if len(rest) > 0 && (rest[0] == "heap" || rest[0] == "os") {
		source = rest[0]
		rest = rest[1:]
	}
	return op, source, strings.Join(rest, "/")
}

func compare(results []BenchmarkResult) []Comparison {
	type key struct{ op, variant string }
	grouped := make(map[key]*Comparison)
	var order []key
	for i := range results {
		r := &results[i]
		k := key{r.Operation, r.Variant}
		c, ok := grouped[k]
		if !ok {
			c = &Comparison{Operation: r.Operation, Variant: r.Variant}
			grouped[k] = c
			order = append(order, k)
		}
		switch r.Source {
		case "os":
			c.OS = r
		default:
			c.Heap = r
		}
	}

	out := make([]Comparison, 0, len(order))
	for _, k := range order {
		out = append(out, *grouped[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Operation != out[j].Operation {
			return out[i].Operation < out[j].Operation
		}
		return out[i].Variant < out[j].Variant
	})
	return out
}

func generateMarkdownReport(comps []Comparison, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Benchmark Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	paired, osFaster := 0, 0
	for _, c := range comps {
		if c.Heap != nil && c.OS != nil {
			paired++
			if c.Ratio() > 1 {
				osFaster++
			}
		}
	}
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Benchmarks**: %d\n", len(comps))
	fmt.Fprintf(&sb, "- **Heap/OS pairs**: %d (OS faster in %d)\n\n", paired, osFaster)

	sb.WriteString("## Results\n\n")
	sb.WriteString("| Operation | Variant | heap (ns/op) | os (ns/op) | heap/os | Memory (B/op) | Allocs |\n")
	sb.WriteString("|-----------|---------|--------------|------------|---------|---------------|--------|\n")
	for _, c := range comps {
		ref := c.Heap
		if ref == nil {
			ref = c.OS
		}
		ratio := "-"
		if r := c.Ratio(); r > 0 {
			ratio = fmt.Sprintf("%.2fx", r)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
			c.Operation,
			orDash(c.Variant),
			nsOrDash(c.Heap),
			nsOrDash(c.OS),
			ratio,
			formatBytes(ref.BytesPerOp),
			formatNumber(float64(ref.AllocsPerOp)),
		)
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func nsOrDash(r *BenchmarkResult) string {
	if r == nil {
		return "-"
	}
	return formatNumber(r.NsPerOp)
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
