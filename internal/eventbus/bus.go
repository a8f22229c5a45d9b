// Package eventbus is the in-process pub/sub fan-out for stage changes,
// alerts, and new-message notices. There is no cross-process
// propagation — a deliberate simplification over pg_notify-style
// broadcasting, since delivery to anything beyond connected in-process
// subscribers is out of scope.
package eventbus

import (
	"sync"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
)

// subscriberQueueSize bounds each subscriber's channel; a slow consumer
// that can't keep up has its events silently dropped rather than
// blocking the publisher.
const subscriberQueueSize = 50

// Bus holds two subscriber universes: admin subscribers receive every
// event, portal subscribers receive only events for their own inbox
// email.
type Bus struct {
	mu            sync.RWMutex
	adminSubs     map[chan domain.Event]struct{}
	portalSubs    map[string]map[chan domain.Event]struct{}
}

func New() *Bus {
	return &Bus{
		adminSubs:  make(map[chan domain.Event]struct{}),
		portalSubs: make(map[string]map[chan domain.Event]struct{}),
	}
}

// SubscribeAdmin registers a new admin subscriber and returns its event
// channel plus an unsubscribe function the caller must invoke when done.
func (b *Bus) SubscribeAdmin() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberQueueSize)
	b.mu.Lock()
	b.adminSubs[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.adminSubs, ch)
		b.mu.Unlock()
	}
}

// SubscribePortal registers a new portal subscriber scoped to one inbox
// email.
func (b *Bus) SubscribePortal(email string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberQueueSize)
	b.mu.Lock()
	if b.portalSubs[email] == nil {
		b.portalSubs[email] = make(map[chan domain.Event]struct{})
	}
	b.portalSubs[email][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if subs, ok := b.portalSubs[email]; ok {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.portalSubs, email)
			}
		}
		b.mu.Unlock()
	}
}

// publish delivers event to every subscriber in subs without blocking and
// returns the channels that were full. A full channel means a slow
// consumer; the event is dropped for it and the caller unregisters it
// entirely rather than leaving a permanently-lagging subscriber in place.
func publish(subs map[chan domain.Event]struct{}, event domain.Event) []chan domain.Event {
	var dead []chan domain.Event
	for ch := range subs {
		select {
		case ch <- event:
		default:
			dead = append(dead, ch)
		}
	}
	return dead
}

// PublishNewEmail notifies admin and the inbox's own portal subscribers
// that a previously-unseen message arrived.
func (b *Bus) PublishNewEmail(email string, data domain.NewEmailData, at time.Time) {
	b.publishAll(email, domain.Event{Type: domain.EventNewEmail, Data: data, Timestamp: at})
}

// PublishStageChange notifies admin and the inbox's own portal
// subscribers of a stage promotion.
func (b *Bus) PublishStageChange(email string, data domain.StageChangeData, at time.Time) {
	b.publishAll(email, domain.Event{Type: domain.EventStageChange, Data: data, Timestamp: at})
}

// PublishAlert notifies admin subscribers only — alerts are not scoped
// to a single inbox's portal view.
func (b *Bus) PublishAlert(alert domain.Alert, at time.Time) {
	b.mu.RLock()
	dead := publish(b.adminSubs, domain.Event{Type: domain.EventAlert, Data: alert, Timestamp: at})
	b.mu.RUnlock()

	if len(dead) > 0 {
		b.dropAdmin(dead)
	}
}

func (b *Bus) publishAll(email string, event domain.Event) {
	b.mu.RLock()
	deadAdmin := publish(b.adminSubs, event)
	var deadPortal []chan domain.Event
	if subs, ok := b.portalSubs[email]; ok {
		deadPortal = publish(subs, event)
	}
	b.mu.RUnlock()

	if len(deadAdmin) > 0 {
		b.dropAdmin(deadAdmin)
	}
	if len(deadPortal) > 0 {
		b.dropPortal(email, deadPortal)
	}
}

// dropAdmin unregisters each channel still present in adminSubs, so a
// subscriber that fell behind once never receives another event. The
// presence check makes this safe to call with a channel a concurrent
// publish call already dropped.
func (b *Bus) dropAdmin(chs []chan domain.Event) {
	b.mu.Lock()
	for _, ch := range chs {
		delete(b.adminSubs, ch)
	}
	b.mu.Unlock()
}

// dropPortal unregisters each channel still present in the given email's
// subscriber set, removing the set entirely once empty.
func (b *Bus) dropPortal(email string, chs []chan domain.Event) {
	b.mu.Lock()
	if subs, ok := b.portalSubs[email]; ok {
		for _, ch := range chs {
			delete(subs, ch)
		}
		if len(subs) == 0 {
			delete(b.portalSubs, email)
		}
	}
	b.mu.Unlock()
}

// Counts reports how many subscribers of each kind are currently
// connected, for operator visibility.
func (b *Bus) Counts() (admin int, portal int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	admin = len(b.adminSubs)
	for _, subs := range b.portalSubs {
		portal += len(subs)
	}
	return admin, portal
}
