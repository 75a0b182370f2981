package app

import (
	"time"

	"github.com/vango-dev/stencil/pkg/reconcile"
)

// PassInfo identifies a render pass.
type PassInfo struct {
	Instance string
	ID       uint64
	// Trigger is the name of the field whose write scheduled the pass, or
	// "mount" and "update" for passes started explicitly.
	Trigger string
}

// PassResult describes a finished pass.
type PassResult struct {
	PassInfo
	Duration time.Duration
	Stats    reconcile.Stats
	// BuildFailed is set when the build returned no tree; the host tree
	// was left unchanged.
	BuildFailed bool
	Err         error
}

// Observer is notified about render passes.
type Observer interface {
	PassStarted(info PassInfo)
	PassFinished(res PassResult)
	BuildFailed(info PassInfo, err error)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// some of the methods.
type NopObserver struct{}

func (NopObserver) PassStarted(PassInfo)        {}
func (NopObserver) PassFinished(PassResult)     {}
func (NopObserver) BuildFailed(PassInfo, error) {}
