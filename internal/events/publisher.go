// Package events announces listing mutations to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Nop 未启用消息时使用
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("car-classifieds"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Subject(event string) string { return p.prefix + "." + event }

func (p *NATSPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(event), b)
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}
