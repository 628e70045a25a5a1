package transport

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counters is the mutable, concurrency-safe counter set backing Info. It is
// embedded by every transport driver instead of managing atomics by hand
// in each one.
type Counters struct {
	connected         int32
	connectedSince    atomic.Value // time.Time
	requestsSent      uint64
	responsesReceived uint64
	notificationsSent uint64
	notificationsRcvd uint64
	errors            uint64

	mu       sync.Mutex
	metadata map[string]interface{}
}

func (c *Counters) SetConnected(connected bool) {
	if connected {
		atomic.StoreInt32(&c.connected, 1)
		c.connectedSince.Store(time.Now())
		return
	}
	atomic.StoreInt32(&c.connected, 0)
}

func (c *Counters) IncRequestsSent()       { atomic.AddUint64(&c.requestsSent, 1) }
func (c *Counters) IncResponsesReceived()  { atomic.AddUint64(&c.responsesReceived, 1) }
func (c *Counters) IncNotificationsSent()  { atomic.AddUint64(&c.notificationsSent, 1) }
func (c *Counters) IncNotificationsRecvd() { atomic.AddUint64(&c.notificationsRcvd, 1) }
func (c *Counters) IncErrors()             { atomic.AddUint64(&c.errors, 1) }

func (c *Counters) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		c.metadata = map[string]interface{}{}
	}
	c.metadata[key] = value
}

// Snapshot renders the current counters into an Info value.
func (c *Counters) Snapshot() Info {
	c.mu.Lock()
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	c.mu.Unlock()

	info := Info{
		Connected:             atomic.LoadInt32(&c.connected) == 1,
		RequestsSent:          atomic.LoadUint64(&c.requestsSent),
		ResponsesReceived:     atomic.LoadUint64(&c.responsesReceived),
		NotificationsSent:     atomic.LoadUint64(&c.notificationsSent),
		NotificationsReceived: atomic.LoadUint64(&c.notificationsRcvd),
		Errors:                atomic.LoadUint64(&c.errors),
		Metadata:              metadata,
	}
	if since, ok := c.connectedSince.Load().(time.Time); ok {
		info.ConnectedSince = &since
	}
	return info
}
