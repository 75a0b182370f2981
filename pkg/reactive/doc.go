// Package reactive provides observable cells and effects that re-run when
// the cells they read change.
//
// A Cell holds a value. Reading it with Get inside a running effect or
// computed value subscribes that reader; Set notifies the subscribers.
// Pre-write callbacks registered with OnBeforeSet run before the value is
// replaced, which is how component update hooks observe writes.
//
//	count := reactive.NewCell(0).Named("count")
//	reactive.WatchEffect(func() {
//	    fmt.Println("count is", count.Get())
//	})
//	count.Set(1) // prints "count is 1"
//
// Effects run synchronously unless given a scheduler. Batch defers
// notifications until the outermost batch returns. A Scope collects the
// effects created inside Run so they can be stopped together.
//
// Dependency tracking is per goroutine. Cells themselves are safe for
// concurrent use; effects are expected to be driven from one goroutine.
package reactive
