// Package publisher announces finished reports on Kafka so downstream
// consumers can track word trends across runs.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/kafka"
)

// EventWriter is satisfied by *kafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// ReportEvent is the Kafka message payload for one report.
type ReportEvent struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Files       []string            `json:"files"`
	TopN        int                 `json:"top_n"`
	Eligible    int                 `json:"eligible"`
	Words       []report.RankedWord `json:"words"`
}

type Publisher struct {
	writer EventWriter
}

func New(writer EventWriter) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) Name() string { return "kafka" }

// Deliver publishes r keyed by its run id.
func (p *Publisher) Deliver(ctx context.Context, r *report.Report) error {
	files := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		files = append(files, s.Path)
	}
	event := kafka.Event{
		Key: r.RunID,
		Value: ReportEvent{
			RunID:       r.RunID,
			GeneratedAt: r.GeneratedAt,
			Files:       files,
			TopN:        r.Params.TopN,
			Eligible:    r.Eligible,
			Words:       r.Words,
		},
	}
	if err := p.writer.Publish(ctx, event); err != nil {
		return fmt.Errorf("publishing report %s: %w", r.RunID, err)
	}
	return nil
}
