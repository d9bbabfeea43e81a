// Package session holds the user-visible state of noteclean and runs the
// long operations (OCR, batch cleaning) on worker goroutines.
//
// A single owner goroutine applies every state change. Workers never touch
// State; they post events to the owner, which applies them in arrival order
// and then forwards them on Events().
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
)

var (
	// ErrBusy is returned when a job of the same kind is already running.
	ErrBusy = errors.New("a job of this kind is already running")
	// ErrNotRunning is returned when Run has not been called.
	ErrNotRunning = errors.New("session is not running")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session is closed")
)

// ReadyStatus is the initial status line.
const ReadyStatus = "Ready. Load an image or folder."

// Extractor performs OCR; *ocr.Gateway implements it.
type Extractor interface {
	Extract(ctx context.Context, img image.Image, languages []string) ocr.Result
}

// Deps are the collaborators a Session drives.
type Deps struct {
	OCR           Extractor
	BatchObserver pipeline.BatchObserver
	Logger        *slog.Logger
}

// Options tune a Session.
type Options struct {
	// EventBuffer is the capacity of the Events channel. Consumers must
	// drain it; the owner waits when it is full.
	EventBuffer int
}

type jobKind int

const (
	jobOCR jobKind = iota
	jobBatch
)

type command struct {
	kind  jobKind
	img   image.Image
	langs []string
	job   pipeline.BatchJob
	reply chan error
}

// Session is safe for concurrent use.
type Session struct {
	deps   Deps
	logger *slog.Logger

	cmds    chan command
	inbox   chan Event
	events  chan Event
	closing chan struct{}
	quit    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	workers   sync.WaitGroup

	// jobsMu guards the lifecycle flags, the job contexts and workers.Add.
	jobsMu  sync.Mutex
	running bool
	closed  bool
	baseCtx context.Context
	cancels map[jobKind]context.CancelFunc

	// state is written by the owner goroutine only.
	state   State
	stateMu sync.RWMutex
	snap    State

	// tracker follows the batch events applied by the owner.
	tracker *pipeline.ProgressTracker
}

// New creates an idle session. Call Run before starting jobs.
func New(deps Deps, opts Options) *Session {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		deps:    deps,
		logger:  logger,
		cmds:    make(chan command),
		inbox:   make(chan Event, 16),
		events:  make(chan Event, opts.EventBuffer),
		closing: make(chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		cancels: make(map[jobKind]context.CancelFunc),
		tracker: pipeline.NewProgressTracker(),
	}
	s.state.Status = ReadyStatus
	s.snap = s.state
	return s
}

// Run starts the owner goroutine. Jobs inherit ctx; canceling it cancels
// them. Run returns immediately and is a no-op when called again.
func (s *Session) Run(ctx context.Context) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if s.running || s.closed {
		return
	}
	s.running = true
	s.baseCtx = ctx
	go s.loop()
}

// Events delivers applied state changes in order. The channel is closed by
// Close.
func (s *Session) Events() <-chan Event { return s.events }

// State returns a snapshot of the current display state. BatchProgress is
// computed at call time, so its elapsed time and ETA keep moving between
// events.
func (s *Session) State() State {
	s.stateMu.RLock()
	st := s.snap
	s.stateMu.RUnlock()
	st.BatchProgress = s.tracker.Snapshot()
	return st
}

// StartOCR extracts text from img on a worker goroutine. The result arrives
// as an EventOCRDone.
func (s *Session) StartOCR(img image.Image, languages []string) error {
	if s.deps.OCR == nil {
		return errors.New("session has no OCR engine")
	}
	return s.submit(command{kind: jobOCR, img: img, langs: append([]string(nil), languages...)})
}

// StartBatch runs job on a worker goroutine. Progress arrives as
// EventBatchProgress and the summary as EventBatchDone.
func (s *Session) StartBatch(job pipeline.BatchJob) error {
	job.Inputs = append([]string(nil), job.Inputs...)
	return s.submit(command{kind: jobBatch, job: job})
}

func (s *Session) submit(cmd command) error {
	s.jobsMu.Lock()
	closed, running := s.closed, s.running
	s.jobsMu.Unlock()
	if closed {
		return ErrClosed
	}
	if !running {
		return ErrNotRunning
	}
	cmd.reply = make(chan error, 1)
	select {
	case s.cmds <- cmd:
	case <-s.closing:
		return ErrClosed
	}
	return <-cmd.reply
}

// Cancel asks every running job to stop. Batches stop between items; OCR
// stops before engine construction.
func (s *Session) Cancel() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Close cancels running jobs, waits for their workers, stops the owner and
// closes Events.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.jobsMu.Lock()
		s.closed = true
		running := s.running
		for _, cancel := range s.cancels {
			cancel()
		}
		s.jobsMu.Unlock()
		close(s.closing)

		if !running {
			close(s.events)
			return
		}
		s.workers.Wait()
		close(s.quit)
		<-s.done
	})
	return nil
}

func (s *Session) loop() {
	defer close(s.done)
	defer close(s.events)

	for {
		select {
		case cmd := <-s.cmds:
			cmd.reply <- s.start(cmd)
		case ev := <-s.inbox:
			s.apply(ev)
		case <-s.quit:
			for {
				select {
				case ev := <-s.inbox:
					s.apply(ev)
				default:
					return
				}
			}
		}
	}
}

// start runs on the owner goroutine.
func (s *Session) start(cmd command) error {
	switch cmd.kind {
	case jobOCR:
		if s.state.OCRBusy {
			return ErrBusy
		}
	case jobBatch:
		if s.state.BatchBusy {
			return ErrBusy
		}
	}

	ctx, cancel, err := s.newJob(cmd.kind)
	if err != nil {
		return err
	}

	switch cmd.kind {
	case jobOCR:
		s.apply(Event{
			Kind:   EventOCRStarted,
			Status: fmt.Sprintf("Extracting text (%s)...", strings.Join(cmd.langs, ", ")),
		})
		go s.runOCR(ctx, cancel, cmd.img, cmd.langs)
	case jobBatch:
		total := len(cmd.job.Inputs)
		s.apply(Event{
			Kind:   EventBatchStarted,
			Status: fmt.Sprintf("Starting batch processing of %d images...", total),
			Total:  total,
		})
		go s.runBatch(ctx, cancel, cmd.job)
	}
	return nil
}

func (s *Session) newJob(kind jobKind) (context.Context, context.CancelFunc, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[kind] = cancel
	s.workers.Add(1)
	return ctx, cancel, nil
}

func (s *Session) finishJob(kind jobKind, cancel context.CancelFunc) {
	cancel()
	s.jobsMu.Lock()
	delete(s.cancels, kind)
	s.jobsMu.Unlock()
}

func (s *Session) post(ev Event) {
	s.inbox <- ev
}

func (s *Session) runOCR(ctx context.Context, cancel context.CancelFunc, img image.Image, langs []string) {
	defer s.workers.Done()
	var res ocr.Result
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ocr worker panicked", "panic", r)
			res = ocr.Result{Languages: langs, Err: &ocr.Failure{
				Stage: ocr.StageRecognize, Reason: fmt.Sprintf("unexpected OCR error: %v", r),
			}}
		}
		s.finishJob(jobOCR, cancel)
		s.post(Event{Kind: EventOCRDone, OCR: &res})
	}()

	res = s.deps.OCR.Extract(ctx, img, langs)
}

func (s *Session) runBatch(ctx context.Context, cancel context.CancelFunc, job pipeline.BatchJob) {
	defer s.workers.Done()
	var (
		res *pipeline.BatchResult
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("batch worker panicked", "panic", r)
			err = fmt.Errorf("unexpected batch error: %v", r)
		}
		s.finishJob(jobBatch, cancel)
		s.post(Event{Kind: EventBatchDone, Batch: res, Err: err})
	}()

	res, err = pipeline.RunBatch(ctx, job, pipeline.BatchOptions{
		Progress: &progressPoster{s: s},
		Logger:   s.logger,
		Observer: s.deps.BatchObserver,
	})
}

// progressPoster forwards batch progress to the owner.
type progressPoster struct {
	s *Session
}

func (p *progressPoster) OnStart(int) {}

func (p *progressPoster) OnProgress(current, total int) {
	p.s.post(Event{Kind: EventBatchProgress, Current: current, Total: total})
}

func (p *progressPoster) OnError(current int, path string, err error) {
	p.s.post(Event{Kind: EventBatchItemFailed, Current: current, Path: path, Err: err})
}

func (p *progressPoster) OnComplete(*pipeline.BatchResult) {}

// apply mutates state, publishes a snapshot and forwards ev. Owner only.
func (s *Session) apply(ev Event) {
	st := &s.state
	switch ev.Kind {
	case EventOCRStarted:
		st.OCRBusy = true
		st.OCRText = ""
		st.Status = ev.Status
	case EventOCRDone:
		st.OCRBusy = false
		st.LastOCR = ev.OCR
		st.Status = ocrStatus(ev.OCR)
		if ev.OCR != nil && ev.OCR.OK() {
			st.OCRText = ev.OCR.Text
		} else if ev.OCR != nil {
			st.OCRText = "OCR Error: " + ev.OCR.Err.Reason
		}
	case EventBatchStarted:
		s.tracker.OnStart(ev.Total)
		st.BatchBusy = true
		st.ProgressValue = 0
		st.ProgressMax = ev.Total
		st.Status = ev.Status
	case EventBatchProgress:
		s.tracker.OnProgress(ev.Current, ev.Total)
		st.ProgressValue = ev.Current
		st.ProgressMax = ev.Total
		st.Status = fmt.Sprintf("Batch: processed %d/%d", ev.Current, ev.Total)
	case EventBatchItemFailed:
		s.tracker.OnError(ev.Current, ev.Path, ev.Err)
		st.Status = fmt.Sprintf("Error processing %s.", filepath.Base(ev.Path))
	case EventBatchDone:
		s.tracker.OnComplete(ev.Batch)
		st.BatchBusy = false
		if ev.Batch != nil {
			st.ProgressValue = ev.Batch.Processed()
		}
		st.LastBatch = ev.Batch
		st.Status = batchStatus(ev.Batch, ev.Err)
	}
	ev.Status = st.Status

	s.stateMu.Lock()
	s.snap = *st
	s.stateMu.Unlock()

	s.forward(ev)
}

func (s *Session) forward(ev Event) {
	select {
	case s.events <- ev:
	case <-s.closing:
		select {
		case s.events <- ev:
		default:
		}
	}
}

func ocrStatus(res *ocr.Result) string {
	switch {
	case res == nil:
		return "OCR failed."
	case res.OK():
		return "Text extracted."
	case res.Err.Stage == ocr.StageCanceled:
		return "OCR canceled."
	default:
		return "OCR completed with issues."
	}
}

func batchStatus(res *pipeline.BatchResult, err error) string {
	if res == nil {
		if err != nil {
			return fmt.Sprintf("Batch failed: %v", err)
		}
		return "Batch failed."
	}
	if res.Canceled {
		return fmt.Sprintf("Batch canceled: %d processed, %d errors.", res.Succeeded, res.Failed)
	}
	return fmt.Sprintf("Batch complete: %d processed, %d errors.", res.Succeeded, res.Failed)
}
