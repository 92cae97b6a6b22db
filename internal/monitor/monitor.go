package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/rewind"
)

// CmdStatus is answered synchronously with the JSON status report.
const CmdStatus = ":STATUS:"

// StatusSource supplies the session state to report.
type StatusSource interface {
	Snapshot() rewind.Snapshot
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Source     StatusSource
	Logger     *slog.Logger
	StatusPath string        // file rewritten on every interval; empty disables the loop
	Interval   time.Duration // defaults to one second
}

// Report is the status document.
type Report struct {
	Time time.Time `json:"time"`
	rewind.Snapshot
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status returns the current report as indented JSON.
func (s *Service) Status() (string, error) {
	report := Report{
		Time:     time.Now().UTC(),
		Snapshot: s.deps.Source.Snapshot(),
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal status: %w", err)
	}
	return string(out), nil
}

// RegisterHandler answers :STATUS: on the dispatching goroutine.
func (s *Service) RegisterHandler(d *dispatcher.Dispatcher) {
	d.Register(CmdStatus, func(e dispatcher.Event) (any, error) {
		return s.Status()
	})
}

// Start starts the status file goroutine. A no-op without a status path
// or when already running.
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	statusFile, err := os.Create(s.deps.StatusPath)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("creating status file: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		defer statusFile.Close()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.writeStatus(statusFile); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its goroutine to exit. Safe
// to call concurrently.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	if s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Service) writeStatus(f *os.File) error {
	status, err := s.Status()
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.WriteString(status + "\n")
	return err
}
