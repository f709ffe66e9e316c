// Package publish streams parsing results over NATS so downstream
// consumers (dashboards, analytics loaders) follow flight state without
// polling the databases.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/batch"
	"telegram_parser/internal/telegram"
)

// Subjects used on the wire.
const (
	SubjectRecords  = "uav.records"
	SubjectMessages = "uav.messages"
	SubjectBatches  = "uav.batches"

	// SubjectIngest carries raw telegram batches submitted by remote
	// producers.
	SubjectIngest = "uav.telegrams.ingest"
)

// Config holds NATS connection settings.
type Config struct {
	URL  string
	Name string
}

// DefaultConfig returns settings for a local NATS server.
func DefaultConfig() Config {
	return Config{
		URL:  nats.DefaultURL,
		Name: "telegram-parser",
	}
}

// Publisher sends parsing results to NATS as JSON.
type Publisher struct {
	nc *nats.Conn
}

// Connect opens a NATS connection with reconnect handling.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// Close drains the connection, flushing pending publishes.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

func (p *Publisher) publish(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishRecord sends an updated flight record.
func (p *Publisher) PublishRecord(rec assembler.FlightRecord) error {
	return p.publish(SubjectRecords, rec)
}

// PublishMessage sends a parsed telegram.
func (p *Publisher) PublishMessage(msg *telegram.ParsedMessage) error {
	return p.publish(SubjectMessages, msg)
}

// PublishBatch sends a batch status snapshot.
func (p *Publisher) PublishBatch(snap batch.Snapshot) error {
	return p.publish(SubjectBatches, snap)
}

// IngestRequest is the wire format for remotely submitted batches.
type IngestRequest struct {
	BatchID string   `json:"batch_id"`
	Source  string   `json:"source"`
	Lines   []string `json:"lines"`
}

// IngestHandler processes one remotely submitted batch.
type IngestHandler func(ctx context.Context, req IngestRequest)

// SubscribeIngest consumes raw telegram batches from the ingest subject
// and hands them to the handler. Malformed payloads are logged and
// dropped. Returns the subscription so the caller can unsubscribe.
func (p *Publisher) SubscribeIngest(ctx context.Context, handler IngestHandler) (*nats.Subscription, error) {
	sub, err := p.nc.Subscribe(SubjectIngest, func(m *nats.Msg) {
		var req IngestRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			log.Printf("ingest: drop malformed payload: %v", err)
			return
		}
		handler(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", SubjectIngest, err)
	}
	return sub, nil
}
