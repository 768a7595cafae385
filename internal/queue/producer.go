// Package queue carries indexer progress events over NATS JetStream so
// the API can fan them out to WebSocket clients. The bus is advisory:
// publish failures are logged and the pipeline keeps going.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/pkg/dto"
)

const (
	EventsStreamName  = "CINEDEX_EVENTS"
	EventsSubjectBase = "cinedex.events"
)

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Producer{nc: nc, js: js}, nil
}

// EnsureStream creates the events stream if it doesn't exist. Retries
// up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        EventsStreamName,
		Subjects:    []string{EventsSubjectBase + ".>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     1000000,
		Storage:     jetstream.FileStorage,
		Description: "Indexer progress events",
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
		cancel()
		if err == nil {
			slog.Info("ensured NATS stream", "name", cfg.Name)
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
		}
		slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// publish wraps the payload in an event envelope and sends it on
// cinedex.events.<type>. Failures are logged, never propagated; the
// indexer must keep working with NATS down.
func (p *Producer) publish(ctx context.Context, eventType string, data interface{}) {
	payload, err := json.Marshal(dto.Event{Type: eventType, At: time.Now().UTC(), Data: data})
	if err != nil {
		slog.Warn("marshal event", "type", eventType, "error", err)
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(opCtx, EventsSubjectBase+"."+eventType, payload); err != nil {
		slog.Warn("publish event", "type", eventType, "error", err)
	}
}

func (p *Producer) PublishScanProgress(ctx context.Context, progress models.ScanProgress) {
	p.publish(ctx, dto.EventScanProgress, progress)
}

func (p *Producer) PublishJobStarted(ctx context.Context, job *models.Job, file *models.File) {
	p.publish(ctx, dto.EventJobStarted, dto.JobEvent{
		JobID:       job.ID,
		FileID:      file.ID,
		Path:        file.Path,
		Filename:    file.Filename,
		TotalStages: job.TotalStages,
	})
}

func (p *Producer) PublishJobStage(ctx context.Context, jobID, fileID uuid.UUID, stage string, stageNum, totalStages int) {
	p.publish(ctx, dto.EventJobStage, dto.JobEvent{
		JobID:       jobID,
		FileID:      fileID,
		Stage:       stage,
		StageNum:    stageNum,
		TotalStages: totalStages,
	})
}

func (p *Producer) PublishJobCompleted(ctx context.Context, jobID, fileID uuid.UUID) {
	p.publish(ctx, dto.EventJobCompleted, dto.JobEvent{JobID: jobID, FileID: fileID})
}

func (p *Producer) PublishJobFailed(ctx context.Context, jobID, fileID uuid.UUID, errMsg string) {
	p.publish(ctx, dto.EventJobFailed, dto.JobEvent{JobID: jobID, FileID: fileID, Error: errMsg})
}

func (p *Producer) PublishClusterCompleted(ctx context.Context, modality string, clusters, points, noise int) {
	p.publish(ctx, dto.EventClusterCompleted, dto.ClusterEvent{
		Modality: modality,
		Clusters: clusters,
		Points:   points,
		Noise:    noise,
	})
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
