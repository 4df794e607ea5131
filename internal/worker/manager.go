package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tripshare/internal/logger"
	"tripshare/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler processes one event. *Handler implements it.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.Event) error
}

// Manager runs worker goroutines consuming the experience stream.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	log         zerolog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		log:         logger.For("Manager"),
	}
}

// Start ensures the consumer group exists and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamExperiences, queue.ConsumerGroupExperiences); err != nil {
		m.cancel()
		return err
	}

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}

	m.log.Info().
		Int("workers", m.workerCount).
		Str("stream", queue.StreamExperiences).
		Str("group", queue.ConsumerGroupExperiences).
		Msg("Workers started")
	return nil
}

// Stop cancels the workers and blocks until all of them return.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.log.Info().Msg("Stopping workers...")
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("All workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	wlog := m.log.With().Int("worker", workerID).Str("consumer", consumerName).Logger()
	wlog.Debug().Msg("Started")

	// crash recovery: finish whatever this consumer left unacked
	m.processPending(wlog, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			wlog.Debug().Msg("Shutting down")
			return
		default:
			m.processMessages(wlog, consumerName)
		}
	}
}

func (m *Manager) processPending(wlog zerolog.Logger, consumerName string) {
	for {
		if m.ctx.Err() != nil {
			return
		}
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamExperiences, queue.ConsumerGroupExperiences, consumerName, m.batchSize)
		if err != nil {
			wlog.Error().Err(err).Msg("Error reading pending")
			return
		}
		if len(messages) == 0 {
			return
		}

		wlog.Info().Int("count", len(messages)).Msg("Processing pending messages")
		m.handleMessages(wlog, messages)
	}
}

func (m *Manager) processMessages(wlog zerolog.Logger, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamExperiences,
		queue.ConsumerGroupExperiences,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		wlog.Error().Err(err).Msg("Error reading")
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) > 0 {
		m.handleMessages(wlog, messages)
	}
}

// handleMessages acks every message, including ones whose handler failed,
// so a poison message cannot stall the group.
func (m *Manager) handleMessages(wlog zerolog.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			wlog.Error().Err(err).Str("msg_id", msg.ID).Str("type", msg.Event.Type).Msg("Handler error")
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamExperiences, queue.ConsumerGroupExperiences, msg.ID); err != nil {
			wlog.Error().Err(err).Str("msg_id", msg.ID).Msg("ACK error")
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
