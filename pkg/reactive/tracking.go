package reactive

import (
	"runtime"
	"sync"
	"sync/atomic"
)

var idCounter atomic.Uint64

func nextID() uint64 { return idCounter.Add(1) }

// listener is notified when a source it read changes.
type listener interface {
	listenerID() uint64
	markDirty(from *source)
	addSource(s *source)
}

// trackingContext holds the reactive state of one goroutine.
type trackingContext struct {
	// listener is subscribed to every source read while it is set.
	listener listener

	// scope owns effects created while it is set.
	scope *Scope

	batchDepth int
	pending    []pendingUpdate
}

type pendingUpdate struct {
	l    listener
	from *source
}

var contexts sync.Map // goroutine id -> *trackingContext

// goroutineID parses the id from the header of the current stack,
// "goroutine <id> [...]".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func current() *trackingContext {
	gid := goroutineID()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	contexts.Store(gid, ctx)
	return ctx
}

func setListener(l listener) listener {
	ctx := current()
	old := ctx.listener
	ctx.listener = l
	return old
}

func currentListener() listener {
	return current().listener
}

func setScope(s *Scope) *Scope {
	ctx := current()
	old := ctx.scope
	ctx.scope = s
	return old
}

func currentScope() *Scope {
	return current().scope
}

// Untracked runs fn without subscribing the current reader to anything fn
// reads.
func Untracked(fn func()) {
	old := setListener(nil)
	defer setListener(old)
	fn()
}

// Release drops the tracking state of the calling goroutine. Goroutines that
// used cells may call it before exiting.
func Release() {
	contexts.Delete(goroutineID())
}
