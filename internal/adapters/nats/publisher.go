package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/abgtour/planttour/internal/core/domain"
)

const (
	// SubjectMarkers prefixes per-session marker batch subjects.
	SubjectMarkers = "tour.markers."
	// SubjectCatalogUpdated announces a freshly synced catalog.
	SubjectCatalogUpdated = "catalog.updated"
)

// CatalogUpdated is the payload of SubjectCatalogUpdated.
type CatalogUpdated struct {
	Records int       `json:"records"`
	At      time.Time `json:"at"`
}

// Publisher implements ports.EventPublisher using NATS JetStream. It also
// satisfies ports.SceneRenderer so a tour can mirror its batches onto the bus.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "TOUR_MARKERS",
			Subjects:  []string{SubjectMarkers + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "CATALOG_EVENTS",
			Subjects:  []string{"catalog.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishMarkerBatch publishes one batch on tour.markers.<session>.
func (p *Publisher) PublishMarkerBatch(ctx context.Context, batch domain.InstructionBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectMarkers+batch.Session, data, nats.Context(ctx))
	return err
}

// Apply mirrors a batch onto the bus.
func (p *Publisher) Apply(ctx context.Context, batch domain.InstructionBatch) error {
	return p.PublishMarkerBatch(ctx, batch)
}

func (p *Publisher) PublishCatalogUpdated(ctx context.Context, records int) error {
	data, err := json.Marshal(CatalogUpdated{Records: records, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCatalogUpdated, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
