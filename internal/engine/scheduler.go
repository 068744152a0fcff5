package engine

import (
	"time"

	"github.com/larsmaeder/homerules/internal/metrics"
	"github.com/larsmaeder/homerules/internal/rules"
)

// timerKey identifies one pending delayed fire. Replicas of one automation
// share a rule id but keep independent delay clocks per watched entity.
type timerKey struct {
	rule   string
	entity string
}

type pendingTimer struct {
	timer *time.Timer
	rule  *rules.Rule
}

// arm starts the delay for a matched rule. If a timer is already pending
// for this key the existing one wins and arm reports false.
func (e *Engine) arm(key timerKey, r *rules.Rule) bool {
	if _, ok := e.pending[key]; ok {
		return false
	}
	d := time.Duration(r.Trigger.For * float64(time.Second))
	t := time.AfterFunc(d, func() {
		// Expiry re-enters the loop as a fresh message; after shutdown the
		// post is dropped.
		select {
		case e.mailbox <- message{kind: msgFire, key: key}:
		case <-e.done:
		}
	})
	e.pending[key] = &pendingTimer{timer: t, rule: r}
	metrics.TimersStarted.Inc()
	e.log.Debug("delayed fire armed", "automation", r.Name, "entity", key.entity, "for", d)
	return true
}

// cancel stops a pending timer without firing. Reports whether one was
// pending.
func (e *Engine) cancel(key timerKey) bool {
	p, ok := e.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(e.pending, key)
	metrics.TimersCancelled.Inc()
	e.log.Debug("delayed fire cancelled", "automation", p.rule.Name, "entity", key.entity)
	return true
}

// handleFire runs a rule whose delay expired. The key may already be gone
// if a cancellation raced the expiry post; that is a no-op.
func (e *Engine) handleFire(key timerKey) {
	p, ok := e.pending[key]
	if !ok {
		return
	}
	delete(e.pending, key)
	metrics.TimersFired.Inc()
	e.fire(p.rule)
}

func (e *Engine) cancelAll() {
	for key, p := range e.pending {
		p.timer.Stop()
		delete(e.pending, key)
		metrics.TimersCancelled.Inc()
	}
}
