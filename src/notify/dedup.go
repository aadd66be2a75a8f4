package notify

import (
	"time"

	"github.com/catalogue-registry/registry/src/utils/model"

	"github.com/patrickmn/go-cache"
)

// Deduplicator remembers notifications seen within the TTL
type Deduplicator struct {
	seen *cache.Cache
}

func NewDeduplicator(ttl time.Duration) (self *Deduplicator) {
	self = new(Deduplicator)
	self.seen = cache.New(ttl, 2*ttl)
	return
}

// Seen marks the notification and tells if it was already marked. Safe for concurrent use.
func (self *Deduplicator) Seen(notification *model.Notification) bool {
	// Add fails when the key is present and not expired
	return self.seen.Add(notification.DeduplicationKey(), struct{}{}, cache.DefaultExpiration) != nil
}

// Forget lets the notification through again, e.g. after its handler failed
func (self *Deduplicator) Forget(notification *model.Notification) {
	self.seen.Delete(notification.DeduplicationKey())
}
