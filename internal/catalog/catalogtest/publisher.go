package catalogtest

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

type Published struct {
	Topic    string
	Key      string
	Envelope catalog.Envelope
}

// Publisher records every event it is handed.
type Publisher struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (p *Publisher) Publish(_ context.Context, topic string, key []byte, ev catalog.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, Published{Topic: topic, Key: string(key), Envelope: ev})
	return nil
}

func (p *Publisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}
