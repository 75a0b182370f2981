package app

import (
	"context"
	"time"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/reactive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type passState uint8

const (
	passPending passState = iota
	passRunning
	passDone
	passCancelled
)

// Pass is a scheduled run of the render effect.
type Pass struct {
	PassInfo

	job   func()
	state passState
}

// Stop cancels the pass if it has not started. It reports whether the pass
// was cancelled by this call.
func (p *Pass) Stop() bool {
	if p.state != passPending {
		return false
	}
	p.state = passCancelled
	return true
}

// Pending reports whether the pass is still waiting to run.
func (p *Pass) Pending() bool { return p.state == passPending }

// Done reports whether the pass ran.
func (p *Pass) Done() bool { return p.state == passDone }

// Cancelled reports whether the pass was stopped before it ran.
func (p *Pass) Cancelled() bool { return p.state == passCancelled }

// Pending returns the pass waiting for Flush, or nil.
func (in *Instance) Pending() *Pass { return in.pending }

// Update renders the instance now, superseding any pending pass.
func (in *Instance) Update() error {
	if in.destroyed {
		return errors.New(errors.CodeInstanceDestroyed).WithDetail(in.name)
	}
	if in.effect == nil {
		in.logger.Warn("update before mount", "instance", in.name)
		return errors.Newf(errors.CategoryRuntime, "instance %q is not mounted", in.name)
	}
	in.cancelPending()
	in.explicit = "update"
	in.effect.Run()
	in.drain()
	return in.lastErr
}

// Flush runs the pending pass, if any, and returns the error of the last
// pass.
func (in *Instance) Flush() error {
	if in.destroyed {
		return errors.New(errors.CodeInstanceDestroyed).WithDetail(in.name)
	}
	in.runPending()
	return in.lastErr
}

func (in *Instance) onTrigger(ev reactive.TriggerEvent) {
	in.trigger = ev.Source
}

// schedule is the render effect's scheduler. A newer trigger stops the
// pass still waiting.
func (in *Instance) schedule(job func()) {
	trigger := in.trigger
	in.trigger = ""
	if trigger == "" {
		trigger = "effect"
	}

	in.passSeq++
	p := &Pass{
		PassInfo: PassInfo{Instance: in.name, ID: in.passSeq, Trigger: trigger},
		job:      job,
	}
	if in.pending != nil && in.pending.Stop() {
		in.logger.Debug("pass superseded",
			"instance", in.name,
			"pass", in.pending.ID,
			"by", p.ID,
		)
	}
	in.pending = p
	in.drain()
}

// drain runs pending passes unless passes are deferred or one is already
// running. Writes made during a pass schedule another one, which runs once
// the current pass returns.
func (in *Instance) drain() {
	if in.cfg.deferred || in.running {
		return
	}
	for in.pending != nil {
		in.runPending()
	}
}

func (in *Instance) runPending() {
	p := in.pending
	if p == nil {
		return
	}
	in.pending = nil
	if p.state != passPending {
		return
	}
	p.state = passRunning
	in.current = p
	p.job()
	in.current = nil
	p.state = passDone
}

func (in *Instance) cancelPending() {
	if in.pending != nil {
		in.pending.Stop()
		in.pending = nil
	}
}

func (in *Instance) passInfo() PassInfo {
	if in.current != nil {
		return in.current.PassInfo
	}
	in.passSeq++
	trigger := in.explicit
	if trigger == "" {
		trigger = "update"
	}
	in.explicit = ""
	return PassInfo{Instance: in.name, ID: in.passSeq, Trigger: trigger}
}

// pass is the body of the render effect. Reads made by the build are what
// the effect tracks.
func (in *Instance) pass() {
	if in.render == nil || in.destroyed {
		return
	}
	info := in.passInfo()
	in.running = true
	defer func() { in.running = false }()

	_, span := in.tracer.Start(context.Background(), "stencil.pass",
		trace.WithAttributes(
			attribute.String("stencil.instance", info.Instance),
			attribute.Int64("stencil.pass_id", int64(info.ID)),
			attribute.String("stencil.trigger", info.Trigger),
		),
	)
	defer span.End()

	in.notify(func(o Observer) { o.PassStarted(info) })
	start := time.Now()
	res := PassResult{PassInfo: info}

	nodes, err := in.tmpl.BuildE(in)
	if err != nil {
		in.logger.Warn("template build failed",
			"instance", in.name,
			"pass", info.ID,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.notify(func(o Observer) { o.BuildFailed(info, err) })

		in.lastErr = err
		res.BuildFailed = true
		res.Err = err
		res.Duration = time.Since(start)
		in.notify(func(o Observer) { o.PassFinished(res) })
		return
	}

	_, err = in.render.Render(nodes)
	res.Stats = in.rec.Stats()
	res.Duration = time.Since(start)
	res.Err = err
	in.lastErr = err

	span.SetAttributes(
		attribute.Int("stencil.created", res.Stats.Created),
		attribute.Int("stencil.removed", res.Stats.Removed),
		attribute.Int("stencil.moved", res.Stats.Moved),
		attribute.Int("stencil.updated", res.Stats.Updated),
	)
	if err != nil {
		in.logger.Error("render pass failed",
			"instance", in.name,
			"pass", info.ID,
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		in.logger.Debug("pass finished",
			"instance", in.name,
			"pass", info.ID,
			"trigger", info.Trigger,
			"mutations", res.Stats.Mutations(),
			"duration", res.Duration,
		)
	}
	in.notify(func(o Observer) { o.PassFinished(res) })

	if err != nil {
		return
	}
	if !in.mounted {
		in.mounted = true
		in.callHook(in.hooks.Mounted)
	} else {
		in.callHook(in.hooks.Updated)
	}
}

func (in *Instance) notify(fn func(Observer)) {
	if len(in.cfg.observers) == 0 {
		return
	}
	reactive.Untracked(func() {
		for _, o := range in.cfg.observers {
			fn(o)
		}
	})
}
