// internal/app/dedup.go
package app

import "homework_status_bot/internal/domain/homework"

// Deduplicator remembers the kind of the last surfaced failure so that an
// ongoing outage produces a single notification.
type Deduplicator struct {
	last homework.Kind
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{last: homework.KindNone}
}

// ShouldNotify reports whether a failure of this kind must reach the user.
// A repeat of the last surfaced kind is suppressed; any other kind is surfaced and remembered.
func (d *Deduplicator) ShouldNotify(kind homework.Kind) bool {
	if kind == homework.KindNone || kind == d.last {
		return false
	}
	d.last = kind
	return true
}

// Reset forgets the last failure after a fully successful cycle.
func (d *Deduplicator) Reset() {
	d.last = homework.KindNone
}

func (d *Deduplicator) Last() homework.Kind {
	return d.last
}
