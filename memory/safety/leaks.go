package safety

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
)

// Site is the creation point of a live handle.
type Site struct {
	ID   uint64 `json:"id"`
	Slot int    `json:"slot"`
	Func string `json:"func"`
	File string `json:"file"`
	Line int    `json:"line"`
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%d (%s) slot=%d id=%#x", s.File, s.Line, s.Func, s.Slot, s.ID)
}

// LeakReport describes handles still live when a manager shut down.
// Sites is empty unless leak tracking was enabled. Err is set when no handle
// leaked but releasing the slot memory failed.
type LeakReport struct {
	Count int    `json:"count"`
	Sites []Site `json:"sites,omitempty"`
	Err   error  `json:"-"`
}

// Leaked reports whether any handle was outstanding.
func (r LeakReport) Leaked() bool { return r.Count > 0 }

// Clean reports whether shutdown found no live handles and released the
// slot memory without error.
func (r LeakReport) Clean() bool { return r.Count == 0 && r.Err == nil }

func (r LeakReport) String() string {
	if r.Err != nil {
		return "safety handle memory not released: " + r.Err.Error()
	}
	if r.Count == 0 {
		return "no leaked safety handles"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d leaked safety handle(s)", r.Count)
	for _, s := range r.Sites {
		b.WriteString("\n  ")
		b.WriteString(s.String())
	}
	return b.String()
}

// leakTracker maps live handle IDs to their creation sites.
type leakTracker struct {
	mu    sync.Mutex
	sites map[uint64]Site
}

func newLeakTracker() *leakTracker {
	return &leakTracker{sites: make(map[uint64]Site)}
}

// record captures the caller skip frames above record itself.
func (lt *leakTracker) record(id uint64, slot, skip int) {
	s := Site{ID: id, Slot: slot, Func: "unknown", File: "unknown"}
	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		s.File, s.Line = file, line
		if fn := runtime.FuncForPC(pc); fn != nil {
			s.Func = fn.Name()
		}
	}
	lt.mu.Lock()
	lt.sites[id] = s
	lt.mu.Unlock()
}

func (lt *leakTracker) forget(id uint64) {
	lt.mu.Lock()
	delete(lt.sites, id)
	lt.mu.Unlock()
}

// snapshot returns live sites in creation order.
func (lt *leakTracker) snapshot() []Site {
	lt.mu.Lock()
	out := make([]Site, 0, len(lt.sites))
	for _, s := range lt.sites {
		out = append(out, s)
	}
	lt.mu.Unlock()
	slices.SortFunc(out, func(a, b Site) int { return cmp.Compare(int64(a.ID), int64(b.ID)) })
	return out
}
