// Package diag renders allocator and handle statistics for humans, with
// locale-aware number formatting.
package diag

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/virtushda/vlib/memory/pinned"
	"github.com/virtushda/vlib/memory/safety"
)

// Printer formats reports for one language.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer formatting numbers for tag.
func NewPrinter(tag language.Tag) *Printer {
	return &Printer{p: message.NewPrinter(tag)}
}

// ParseLanguage parses a BCP 47 tag such as "en", "de-DE" or "fr".
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("diag: language %q: %w", s, err)
	}
	return tag, nil
}

// Count formats n with the locale's digit grouping.
func (p *Printer) Count(n int64) string { return p.p.Sprintf("%d", n) }

// Percent formats part/whole as a percentage with one decimal.
func (p *Printer) Percent(part, whole int64) string {
	if whole == 0 {
		return p.p.Sprintf("%.1f%%", 0.0)
	}
	return p.p.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}

// WriteMemoryStats writes slot occupancy for a pinned memory.
func (p *Printer) WriteMemoryStats(w io.Writer, s pinned.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Source", s.Source.String()},
		{"Element size", p.Count(int64(s.ElementSize)) + " B"},
		{"Chunks", p.Count(int64(s.Chunks)) + " / " + p.Count(int64(s.MaxChunks))},
		{"Chunk capacity", p.Count(int64(s.ChunkCapacity))},
		{"Capacity", p.Count(int64(s.Capacity))},
		{"Covered", p.Count(int64(s.Covered))},
		{"Taken", p.Count(int64(s.Taken)) + " (" + p.Percent(int64(s.Taken), int64(s.Capacity)) + ")"},
		{"Issued", p.Count(int64(s.Issued))},
		{"Free", p.Count(int64(s.Free))},
		{"Reuses", p.Count(int64(s.Reuses))},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// WriteManagerStats writes handle counters followed by the ID memory figures.
func (p *Printer) WriteManagerStats(w io.Writer, s safety.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Created:\t%s\n", p.Count(int64(s.Created)))
	fmt.Fprintf(tw, "Disposed:\t%s\n", p.Count(int64(s.Disposed)))
	fmt.Fprintf(tw, "Stale disposes:\t%s\n", p.Count(int64(s.StaleDisposes)))
	fmt.Fprintf(tw, "Outstanding:\t%s\n", p.Count(int64(s.Outstanding)))
	fmt.Fprintf(tw, "Capacity:\t%s\n", p.Count(int64(s.Capacity)))
	fmt.Fprintf(tw, "Leak tracking:\t%t\n", s.TrackLeaks)
	fmt.Fprintf(tw, "Shut down:\t%t\n", s.Shutdown)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return p.WriteMemoryStats(w, s.Memory)
}

// WriteLeakReport writes the leak count and one line per tracked site.
func (p *Printer) WriteLeakReport(w io.Writer, r safety.LeakReport) error {
	if r.Err != nil {
		_, err := fmt.Fprintf(w, "Release failed: %v\n", r.Err)
		return err
	}
	if !r.Leaked() {
		_, err := fmt.Fprintln(w, "No leaked handles.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Leaked handles: %s\n", p.Count(int64(r.Count))); err != nil {
		return err
	}
	if len(r.Sites) == 0 {
		_, err := fmt.Fprintf(w, "  (set %s=1 to record creation sites)\n", safety.EnvTrackLeaks)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  SLOT\tID\tFUNC\tLOCATION")
	for _, s := range r.Sites {
		fmt.Fprintf(tw, "  %s\t%#x\t%s\t%s:%d\n", p.Count(int64(s.Slot)), s.ID, s.Func, s.File, s.Line)
	}
	return tw.Flush()
}
