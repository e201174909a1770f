package pulse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
)

// Poller runs coordinator cycles on a fixed interval. At most one cycle
// runs at a time; a trigger arriving while a cycle is in flight is dropped.
type Poller struct {
	coord    *Coordinator
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  sync.Mutex // held for the duration of a cycle
	logger   *zap.SugaredLogger
	pulseLog *zap.SugaredLogger // Logger with Pulse symbol pre-attached

	mu            sync.Mutex
	lastCycleAt   time.Time
	cycles        int64
	droppedCycles int64
}

// PollerConfig contains configuration for the Poller
type PollerConfig struct {
	// Interval between cycles. Zero or negative disables the ticker;
	// cycles then only run through Trigger.
	Interval time.Duration
}

// NewPoller creates a new Poller
func NewPoller(coord *Coordinator, cfg PollerConfig, log *zap.SugaredLogger) *Poller {
	return NewPollerWithContext(context.Background(), coord, cfg, log)
}

// NewPollerWithContext creates a poller with a parent context
func NewPollerWithContext(ctx context.Context, coord *Coordinator, cfg PollerConfig, log *zap.SugaredLogger) *Poller {
	pollCtx, cancel := context.WithCancel(ctx)
	log = logger.OrNop(log)

	return &Poller{
		coord:    coord,
		interval: cfg.Interval,
		ctx:      pollCtx,
		cancel:   cancel,
		logger:   log,
		pulseLog: logger.AddPulseSymbol(log),
	}
}

// Start begins the polling loop
func (p *Poller) Start() {
	if p.interval <= 0 {
		p.pulseLog.Infow("Poller started without interval, cycles run on trigger only")
		return
	}
	p.wg.Add(1)
	go p.run()
	logger.AddPulseOpenSymbol(p.logger).Infow("Poller started", "interval", p.interval)
}

// Stop cancels the polling context and waits for the running cycle to
// finish its current store operation.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	logger.AddPulseCloseSymbol(p.logger).Infow("Poller stopped")
}

// Trigger runs one cycle now. ran is false when a cycle was already in
// flight and this trigger was dropped.
func (p *Poller) Trigger(ctx context.Context) (res CycleResult, ran bool, err error) {
	if !p.running.TryLock() {
		p.mu.Lock()
		p.droppedCycles++
		p.mu.Unlock()
		p.pulseLog.Infow("Cycle already in flight, trigger dropped")
		return CycleResult{}, false, nil
	}
	defer p.running.Unlock()

	p.mu.Lock()
	p.lastCycleAt = time.Now()
	p.cycles++
	p.mu.Unlock()

	res, err = p.coord.RunCycle(ctx)
	return res, true, err
}

// run is the main poller loop
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Poller) tick() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		res, ran, err := p.Trigger(p.ctx)
		if !ran {
			return
		}
		if err != nil {
			if errors.IsCanceled(err) {
				return
			}
			// Don't spam logs - a failing catalog is retried next tick
			p.pulseLog.Warnw("Poll cycle failed",
				logger.FieldErrorKind, errors.KindOf(err),
				logger.FieldError, err)
			return
		}
		if res.Failed > 0 {
			p.pulseLog.Warnw("Poll cycle finished with failures",
				"ingested", res.Ingested,
				"failed", res.Failed,
				"watermark", res.Watermark)
		}
	}()
}

// PollerStats is a snapshot of poller counters.
type PollerStats struct {
	LastCycleAt   time.Time
	Cycles        int64
	DroppedCycles int64
	Interval      time.Duration
}

// GetStats returns poller statistics
func (p *Poller) GetStats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PollerStats{
		LastCycleAt:   p.lastCycleAt,
		Cycles:        p.cycles,
		DroppedCycles: p.droppedCycles,
		Interval:      p.interval,
	}
}
