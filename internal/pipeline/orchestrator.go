// Package pipeline runs one video job end to end: fetch, probe, fan out
// rendition encodes, assemble the master playlist, upload, report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"hlstranscoder/internal/encoder"
	"hlstranscoder/internal/model"
	"hlstranscoder/internal/playlist"
	"hlstranscoder/internal/probe"
	"hlstranscoder/internal/progress"
	"hlstranscoder/internal/quality"
	"hlstranscoder/internal/storage"
	"hlstranscoder/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prober derives source facts from a local file.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.SourceInfo, error)
}

// RenditionRunner encodes one rendition.
type RenditionRunner interface {
	Run(ctx context.Context, task encoder.Task, onProgress encoder.ProgressFunc) (encoder.Artifacts, error)
}

// AckFunc acknowledges the queue message the job came from.
type AckFunc func(ctx context.Context) error

// Options are the per-process settings of the orchestrator.
type Options struct {
	WorkDir           string
	OutputBucket      string
	UploadConcurrency int
}

// Orchestrator owns every job it processes for the job's whole lifetime.
type Orchestrator struct {
	store     storage.Store
	publisher progress.Publisher
	prober    Prober
	encoder   RenditionRunner
	metrics   telemetry.MetricsClient
	opts      Options

	newAttemptID func() string
	active       atomic.Int32
}

func NewOrchestrator(
	store storage.Store,
	publisher progress.Publisher,
	prober Prober,
	enc RenditionRunner,
	metrics telemetry.MetricsClient,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		publisher:    publisher,
		prober:       prober,
		encoder:      enc,
		metrics:      metrics,
		opts:         opts,
		newAttemptID: func() string { return uuid.NewString() },
	}
}

// Outcome summarises a finished job.
type Outcome struct {
	VideoID   string
	Attempt   string
	States    []State
	Source    probe.SourceInfo
	Completed []quality.Level
	Failed    []quality.Level
	// RenditionErrs holds the *model.EncodeError of each failed level.
	RenditionErrs map[string]error
	// Err is the fatal cause when the job ended in ERROR.
	Err error
	// AssemblyErr is set when the master playlist could not be written.
	AssemblyErr error
	Uploaded    int
}

// Final returns the state the job ended in.
func (o Outcome) Final() State {
	if len(o.States) == 0 {
		return ""
	}
	return o.States[len(o.States)-1]
}

// run carries the mutable state of one job.
type run struct {
	job       model.VideoJob
	workDir   string
	sourceDir string
	outputDir string
	agg       *progress.Aggregator
	logger    *zap.Logger
	out       Outcome
}

func (r *run) enter(s State) {
	if cur := r.out.Final(); cur != "" && !CanTransition(cur, s) {
		r.logger.Error("System Error: Illegal state transition",
			zap.String("from", string(cur)), zap.String("to", string(s)))
	}
	r.out.States = append(r.out.States, s)
	r.logger.Info("Job state", zap.String("state", string(s)))
}

// Process runs job to COMPLETED or ERROR. The terminal status is published
// before ack is called; local working files are removed afterwards.
func (o *Orchestrator) Process(ctx context.Context, job model.VideoJob, ack AckFunc) Outcome {
	started := time.Now()
	attempt := o.newAttemptID()
	workDir := filepath.Join(o.opts.WorkDir, job.VideoID+"-"+attempt)
	r := &run{
		job:       job,
		workDir:   workDir,
		sourceDir: filepath.Join(workDir, "source"),
		outputDir: filepath.Join(workDir, "encoded", job.VideoID),
		agg:       progress.NewAggregator(job.VideoID, o.publisher),
		logger:    telemetry.Logger.With(zap.String("video_id", job.VideoID), zap.String("attempt", attempt)),
		out:       Outcome{VideoID: job.VideoID, Attempt: attempt},
	}
	r.enter(StateReceived)

	if err := o.execute(ctx, r); err != nil {
		r.out.Err = err
		r.enter(StateError)
		r.logger.Error("Job failed", zap.Error(err))
		_ = r.agg.PublishTerminal(ctx, model.StatusError, err)
	} else {
		r.enter(StateCompleted)
		_ = r.agg.PublishTerminal(ctx, model.StatusCompleted, nil)
	}

	status := string(r.out.Final())
	o.metrics.IncrementJobCounter(status)
	o.metrics.ObserveJobDuration(status, time.Since(started))

	if ack != nil {
		if err := ack(ctx); err != nil {
			r.logger.Error("System Error: Failed to acknowledge job", zap.Error(err))
		}
	}
	o.cleanup(r)
	return r.out
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	r.enter(StateProbing)
	src, err := storage.Fetch(ctx, o.store, r.job.Bucket, r.job.Path, r.sourceDir)
	if err != nil {
		return &model.DownloadError{Bucket: r.job.Bucket, Key: r.job.Path, Err: err}
	}
	info, err := o.prober.Probe(ctx, src)
	if err != nil {
		return err
	}
	r.out.Source = info
	r.logger.Info("Probed source",
		zap.Int64("total_frames", info.TotalFrames),
		zap.Int("width", info.Width), zap.Int("height", info.Height),
		zap.String("quality", info.Quality.Label))

	r.enter(StateEncoding)
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	o.encodeAll(ctx, r, src, info)
	if len(r.out.Completed) == 0 {
		return noRenditions(r.out.Failed, r.out.RenditionErrs)
	}

	r.enter(StateAssembling)
	if _, err := playlist.WriteMaster(r.outputDir, r.out.Completed, playlist.MasterName); err != nil {
		r.out.AssemblyErr = err
		r.logger.Error("System Error: Failed to write master playlist", zap.Error(err))
	}

	r.enter(StateUploading)
	_ = r.agg.PublishTerminal(ctx, model.StatusUploading, r.out.AssemblyErr)
	n, err := storage.UploadTree(ctx, o.store, r.outputDir, r.job.VideoID, o.opts.OutputBucket, o.opts.UploadConcurrency)
	if err != nil {
		return &model.UploadError{Bucket: o.opts.OutputBucket, Prefix: r.job.VideoID, Err: err}
	}
	r.out.Uploaded = n
	r.logger.Info("Uploaded artifacts", zap.Int("objects", n), zap.String("bucket", o.opts.OutputBucket))
	return nil
}

// encodeAll starts one goroutine per ladder level and waits for all of
// them. A failing rendition never stops its siblings.
func (o *Orchestrator) encodeAll(ctx context.Context, r *run, src string, info probe.SourceInfo) {
	levels := quality.AtOrBelow(info.Quality)
	labels := make([]string, len(levels))
	for i, l := range levels {
		labels[i] = l.Label
	}
	r.agg.Start(ctx, labels)

	onProgress := func(label string, percent int) {
		r.agg.Update(ctx, label, percent)
	}

	errs := make([]error, len(levels))
	var wg sync.WaitGroup
	for i, level := range levels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.metrics.SetActiveEncodes(int(o.active.Add(1)))
			defer func() { o.metrics.SetActiveEncodes(int(o.active.Add(-1))) }()

			started := time.Now()
			_, err := o.encoder.Run(ctx, encoder.Task{
				Source:      src,
				OutputDir:   r.outputDir,
				Quality:     level,
				IsReference: level == info.Quality,
				TotalFrames: info.TotalFrames,
			}, onProgress)
			o.metrics.ObserveRenditionDuration(level.Label, time.Since(started))
			if err != nil {
				errs[i] = err
				o.metrics.IncrementRenditionCounter(level.Label, "failed")
				r.logger.Error("Rendition failed", zap.String("quality", level.Label), zap.Error(err))
				r.agg.Fail(ctx, level.Label, err)
				return
			}
			o.metrics.IncrementRenditionCounter(level.Label, "completed")
			r.logger.Info("Rendition completed", zap.String("quality", level.Label))
		}()
	}
	wg.Wait()

	for i, level := range levels {
		if errs[i] != nil {
			r.out.Failed = append(r.out.Failed, level)
			if r.out.RenditionErrs == nil {
				r.out.RenditionErrs = make(map[string]error)
			}
			r.out.RenditionErrs[level.Label] = errs[i]
			// Leave nothing of a failed rendition for the upload.
			if err := os.RemoveAll(filepath.Join(r.outputDir, level.Label)); err != nil {
				r.logger.Warn("Failed to remove partial rendition", zap.String("quality", level.Label), zap.Error(err))
			}
			continue
		}
		r.out.Completed = append(r.out.Completed, level)
	}
}

func noRenditions(failed []quality.Level, errs map[string]error) error {
	causes := make([]string, len(failed))
	for i, l := range failed {
		causes[i] = errs[l.Label].Error()
	}
	return fmt.Errorf("%w: %s", model.ErrNoRenditions, strings.Join(causes, "; "))
}

func (o *Orchestrator) cleanup(r *run) {
	if err := os.RemoveAll(r.workDir); err != nil {
		cerr := &model.CleanupError{Path: r.workDir, Err: err}
		r.logger.Warn("Cleanup failed", zap.Error(cerr))
	}
}
