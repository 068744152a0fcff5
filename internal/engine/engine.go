// Package engine processes state-change events against the rule store:
// trigger matching, delayed fires, condition gating, and action dispatch.
// One goroutine owns all mutable engine state; everything else talks to it
// through the mailbox, so a single event is always processed to completion
// before the next one starts.
package engine

import (
	"log/slog"
	"sync"

	"github.com/larsmaeder/homerules/internal/event"
	"github.com/larsmaeder/homerules/internal/metrics"
	"github.com/larsmaeder/homerules/internal/rules"
)

const mailboxDepth = 128

// Result summarizes processing one event.
type Result struct {
	Matched   int `json:"matched"`
	Scheduled int `json:"scheduled"`
	Cancelled int `json:"cancelled"`
	Fired     int `json:"fired"`
	Published int `json:"published"`
}

type msgKind uint8

const (
	msgEvent msgKind = iota
	msgFire
	msgSwap
)

type message struct {
	kind    msgKind
	ev      event.StateChange
	key     timerKey
	store   *rules.Store
	resultC chan Result
}

// Engine runs the event loop.
type Engine struct {
	log      *slog.Logger
	resolver rules.Resolver
	states   rules.States
	pub      rules.Publisher

	mailbox chan message
	done    chan struct{}
	loopWG  sync.WaitGroup
	stop    sync.Once

	sub rules.Subscription

	// Owned exclusively by the loop goroutine after Start.
	store   *rules.Store
	pending map[timerKey]*pendingTimer
}

// New creates an Engine over the given store and host collaborators.
func New(log *slog.Logger, store *rules.Store, resolver rules.Resolver, states rules.States, pub rules.Publisher) *Engine {
	return &Engine{
		log:      log,
		resolver: resolver,
		states:   states,
		pub:      pub,
		mailbox:  make(chan message, mailboxDepth),
		done:     make(chan struct{}),
		store:    store,
		pending:  make(map[timerKey]*pendingTimer),
	}
}

// Start launches the event loop and, if bus is non-nil, subscribes to it.
func (e *Engine) Start(bus rules.Bus) {
	e.loopWG.Add(1)
	go e.loop()
	if bus != nil {
		e.sub = bus.Subscribe(e.enqueue)
	}
	e.log.Info("engine started", "rules", e.store.Len())
}

// Stop unsubscribes from the event source, cancels all pending timers and
// waits for the loop to exit. No action fires after Stop returns.
func (e *Engine) Stop() {
	e.stop.Do(func() {
		if e.sub != nil {
			e.sub.Cancel()
		}
		close(e.done)
		e.loopWG.Wait()
		e.log.Info("engine stopped")
	})
}

// Running reports whether the engine accepts events.
func (e *Engine) Running() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Process handles one event synchronously and returns its result. After
// Stop it returns a zero Result.
func (e *Engine) Process(ev event.StateChange) Result {
	resultC := make(chan Result, 1)
	select {
	case e.mailbox <- message{kind: msgEvent, ev: ev, resultC: resultC}:
	case <-e.done:
		return Result{}
	}
	select {
	case r := <-resultC:
		return r
	case <-e.done:
		return Result{}
	}
}

// Swap replaces the rule store between events. Pending timers belong to
// the outgoing store and are cancelled.
func (e *Engine) Swap(store *rules.Store) {
	select {
	case e.mailbox <- message{kind: msgSwap, store: store}:
	case <-e.done:
	}
}

func (e *Engine) enqueue(ev event.StateChange) {
	select {
	case e.mailbox <- message{kind: msgEvent, ev: ev}:
	case <-e.done:
	}
}

func (e *Engine) loop() {
	defer e.loopWG.Done()
	for {
		// Shutdown takes priority over queued work: once done is closed,
		// nothing else may fire.
		select {
		case <-e.done:
			e.cancelAll()
			return
		default:
		}
		select {
		case m := <-e.mailbox:
			e.dispatch(m)
		case <-e.done:
			e.cancelAll()
			return
		}
	}
}

func (e *Engine) dispatch(m message) {
	switch m.kind {
	case msgEvent:
		r := e.handleEvent(m.ev)
		metrics.EventsProcessed.Inc()
		if m.resultC != nil {
			m.resultC <- r
		}
	case msgFire:
		e.handleFire(m.key)
	case msgSwap:
		e.store = m.store
		e.cancelAll()
		e.log.Info("rule store swapped", "rules", m.store.Len())
	}
}

func (e *Engine) handleEvent(ev event.StateChange) Result {
	var res Result
	for _, r := range e.store.RulesFor(ev.Entity) {
		out := rules.MatchTrigger(&r.Trigger, ev.Update, ev.From, ev.To)
		metrics.TriggerOutcomes.WithLabelValues(out.String()).Inc()
		key := timerKey{rule: r.ID, entity: r.Entity}
		switch out {
		case rules.Match:
			res.Matched++
			if r.Trigger.For > 0 {
				if e.arm(key, r) {
					res.Scheduled++
				}
			} else {
				res.Fired++
				res.Published += e.fire(r)
			}
		case rules.NegativeEdge:
			if e.cancel(key) {
				res.Cancelled++
			}
		}
	}
	return res
}

// fire gates on the rule's conditions and runs its actions. Returns the
// number of commands published.
func (e *Engine) fire(r *rules.Rule) int {
	if !rules.EvalConditions(r.Conditions, e.resolver, e.states, e.log) {
		e.log.Debug("conditions not met", "automation", r.Name, "entity", r.Entity)
		return 0
	}
	return e.runActions(r.Actions)
}
