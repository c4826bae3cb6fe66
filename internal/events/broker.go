package events

import (
	"strings"
	"sync"
	"time"
)

type Type string

const (
	TypeStarted  Type = "started"
	TypeFile     Type = "file"
	TypeArchived Type = "archived"
	TypeFailed   Type = "failed"
)

// Event reports progress of one generation.
type Event struct {
	Type         Type      `json:"type"`
	Project      string    `json:"project"`
	GenerationID string    `json:"generationId"`
	File         string    `json:"file,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
	Message      string    `json:"message,omitempty"`
	At           time.Time `json:"at"`
}

const DefaultBuffer = 64

// Broker fans events out to per-project subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{subs: make(map[string]map[uint64]chan Event), buffer: buffer}
}

// Subscribe returns a channel of the project's events and a cancel func
// that closes it.
func (b *Broker) Subscribe(project string) (<-chan Event, func()) {
	project = strings.TrimSpace(project)
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[project] == nil {
		b.subs[project] = make(map[uint64]chan Event)
	}
	b.subs[project][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			set := b.subs[project]
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, project)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Broker) Publish(ev Event) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[strings.TrimSpace(ev.Project)] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many listeners a project has.
func (b *Broker) Subscribers(project string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[strings.TrimSpace(project)])
}
