package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/database"
)

// Scheduler is responsible for running background jobs against the tracker
// store. It implements cartridge.BackgroundWorker so the application starts
// and stops it with the server.
type Scheduler struct {
	tracker   *database.TrackerManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	checkpointJob *CheckpointJob
	retentionJob  *RetentionJob

	// Tickers for each job type
	checkpointTicker *time.Ticker
	retentionTicker  *time.Ticker
}

func NewScheduler(tracker *database.TrackerManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		tracker:   tracker,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
	}

	// Initialize job instances
	s.checkpointJob = NewCheckpointJob(tracker, logger)
	s.retentionJob = NewRetentionJob(tracker, logger, cfg)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	// Start WAL checkpoint job
	s.startCheckpointJob()

	// Start retention job
	s.startRetentionJob()

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startCheckpointJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting WAL checkpoint job", slog.Duration("interval", interval))
	s.checkpointTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.checkpointTicker.C:
				s.executeJobSafely("wal_checkpoint", s.checkpointJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("WAL checkpoint job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startRetentionJob() {
	interval := 24 * time.Hour
	s.logger.Info("Starting visit retention job", slog.Duration("interval", interval))
	s.retentionTicker = time.NewTicker(interval)

	go func() {
		// Run initial cleanup
		s.logger.Info("Running initial retention cleanup...")
		if err := s.retentionJob.Run(); err != nil {
			s.logger.Error("Error in initial retention job", slog.Any("error", err))
		}

		for {
			select {
			case <-s.retentionTicker.C:
				if err := s.retentionJob.Run(); err != nil {
					s.logger.Error("Error in retention job", slog.Any("error", err))
				}
			case <-s.ctx.Done():
				s.logger.Info("Visit retention job stopped")
				return
			}
		}
	}()
}

// Stop halts all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.checkpointTicker != nil {
		s.checkpointTicker.Stop()
	}
	if s.retentionTicker != nil {
		s.retentionTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// RunRetentionNow triggers a retention sweep outside the schedule. Used by
// the control tool.
func (s *Scheduler) RunRetentionNow() error {
	if !s.enabled {
		return nil
	}
	return s.retentionJob.Run()
}
