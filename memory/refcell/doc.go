// Package refcell provides Ref, a shared reference to a manually managed
// value whose liveness is proven by a safety.Handle.
//
// A Ref behaves like a pointer to a heap object that any holder may free:
// copies share the same value, and the first copy to call Dispose frees it.
// Every later access through any copy is detected through the handle instead
// of silently reading freed memory.
//
//	r, err := refcell.New(mgr, 42)
//	if err != nil {
//	    return err
//	}
//	*r.Value() = 7
//	r.Load()          // 7
//	r.Dispose()       // true
//	_, ok := r.TryLoad() // ok == false
//
// Values either come from the Go heap (New) or from an Arena, which keeps
// them in pinned chunks and recycles their slots.
package refcell
