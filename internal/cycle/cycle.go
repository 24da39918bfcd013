// Package cycle composes the pipeline stages into one run:
// select -> stabilize -> (transform) -> upload-with-retry -> archive.
//
// A cycle owns no state beyond its own pass. Every cycle constructs fresh
// candidate, table, and schedule values; a failed cycle cannot poison the
// next one.
package cycle

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fileferry/internal/archive"
	"fileferry/internal/clock"
	"fileferry/internal/config"
	"fileferry/internal/enrich"
	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
	"fileferry/internal/producer"
	"fileferry/internal/selector"
	"fileferry/internal/stability"
	"fileferry/internal/transform"
	"fileferry/internal/upload"
)

// Status is the terminal outcome of one pipeline pass.
type Status int

const (
	// Processed: file uploaded (and archived when enabled).
	Processed Status = iota
	// NoFile: nothing matched the pattern; a normal no-op.
	NoFile
	// NotStable: the candidate never passed the quiet-period gate.
	NotStable
	// Vanished: the candidate disappeared mid-poll.
	Vanished
	// TransformFailed: fatal validation error; file left in place.
	TransformFailed
	// UploadFailed: fatal rejection or exhausted retries; file left in place.
	UploadFailed
	// ArchiveFailed: uploaded but could not be relocated.
	ArchiveFailed
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case NoFile:
		return "no_file"
	case NotStable:
		return "not_stable"
	case Vanished:
		return "vanished"
	case TransformFailed:
		return "transform_failed"
	case UploadFailed:
		return "upload_failed"
	case ArchiveFailed:
		return "archive_failed"
	default:
		return "unknown"
	}
}

// Result is consumed by the loop to decide logging and exit behavior, then
// discarded.
type Result struct {
	Status Status
	File   string // selected file path, when one was selected
	Err    error  // terminal error for the failure statuses
}

// Controller drives one cycle at a time. Stages run strictly sequentially;
// cycles never overlap.
type Controller struct {
	cfg      config.Config
	fsys     ferryfs.FS
	sleeper  clock.Sleeper
	producer *producer.Producer
	selector *selector.Selector
	gate     *stability.Gate
	engine   *transform.Engine
	uploader *upload.Uploader
	enricher *enrich.Enricher
	archiver *archive.Archiver
	log      *logrus.Logger
}

// Deps bundles the constructed stages.
type Deps struct {
	FS       ferryfs.FS
	Sleeper  clock.Sleeper
	Producer *producer.Producer
	Selector *selector.Selector
	Gate     *stability.Gate
	Engine   *transform.Engine
	Uploader *upload.Uploader
	Enricher *enrich.Enricher
	Archiver *archive.Archiver
	Log      *logrus.Logger
}

// New creates a Controller.
func New(cfg config.Config, deps Deps) *Controller {
	return &Controller{
		cfg:      cfg,
		fsys:     deps.FS,
		sleeper:  deps.Sleeper,
		producer: deps.Producer,
		selector: deps.Selector,
		gate:     deps.Gate,
		engine:   deps.Engine,
		uploader: deps.Uploader,
		enricher: deps.Enricher,
		archiver: deps.Archiver,
		log:      deps.Log,
	}
}

// RunOnce executes a single full cycle. The error return is reserved for
// cancellation and process-fatal conditions; per-file failures are carried
// in the Result.
func (c *Controller) RunOnce(ctx context.Context) (Result, error) {
	log := c.log.WithField("cycle_id", uuid.NewString())

	if c.producer != nil {
		if err := c.producer.RunOnce(ctx); err != nil {
			// Spawn failure means no fresh file; report and skip.
			log.WithError(err).Error("producer spawn failed")
			return Result{Status: NoFile, Err: err}, nil
		}
	}

	candidate, err := c.selector.Select()
	if err != nil {
		return Result{}, err
	}
	if candidate == nil {
		log.Debug("no matching files; nothing to do")
		return Result{Status: NoFile}, nil
	}
	log = log.WithField("file", filepath.Base(candidate.Path))
	log.Info("selected candidate file")

	verdict, err := c.gate.Wait(ctx, candidate.Path)
	if err != nil {
		return Result{}, err
	}
	switch verdict {
	case stability.Timeout:
		log.Warn("file did not stabilize within budget; skipping cycle")
		return Result{Status: NotStable, File: candidate.Path}, nil
	case stability.NotFound:
		log.Warn("file disappeared while waiting for stability; skipping cycle")
		return Result{Status: Vanished, File: candidate.Path}, nil
	}
	log.Info("file is stable")

	raw, err := c.fsys.ReadFile(candidate.Path)
	if err != nil {
		return Result{Status: Vanished, File: candidate.Path,
			Err: errors.Wrap(errors.EFileVanished, "failed to read stable file", err)}, nil
	}

	if c.cfg.API.Mode == "lookup_enrich" {
		return c.runEnrich(ctx, log, candidate.Path, raw)
	}

	payload := raw
	if c.cfg.Transform.Enabled {
		payload, err = c.engine.Apply(raw)
		if err != nil {
			log.WithError(err).Error("transform failed; file left in place")
			return Result{Status: TransformFailed, File: candidate.Path, Err: err}, nil
		}
		log.WithField("bytes", len(payload)).Info("transformed file")
	}

	if err := c.uploader.Upload(ctx, payload, filepath.Base(candidate.Path)); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: UploadFailed, File: candidate.Path, Err: err}, nil
	}

	return c.finish(log, candidate.Path)
}

func (c *Controller) runEnrich(ctx context.Context, log *logrus.Entry, path string, raw []byte) (Result, error) {
	rows, err := c.enricher.EnrichFile(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.WithError(err).Error("lookup enrichment failed")
		return Result{Status: UploadFailed, File: path, Err: err}, nil
	}
	if err := c.enricher.Post(ctx, rows); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.WithError(err).Error("posting enriched rows failed")
		return Result{Status: UploadFailed, File: path, Err: err}, nil
	}
	return c.finish(log, path)
}

// finish archives the source file when enabled and closes out the cycle.
func (c *Controller) finish(log *logrus.Entry, path string) (Result, error) {
	if !c.cfg.Archive.Enabled {
		return Result{Status: Processed, File: path}, nil
	}
	dest, err := c.archiver.Move(path)
	if err != nil {
		log.WithError(err).Error("archive move failed")
		return Result{Status: ArchiveFailed, File: path, Err: err}, nil
	}
	log.WithField("archived_to", dest).Info("file archived")
	return Result{Status: Processed, File: path}, nil
}

// Loop runs cycles until ctx is cancelled. An interval of zero runs exactly
// one cycle. Cycle failures are logged; only cancellation and process-fatal
// errors end the loop early.
func (c *Controller) Loop(ctx context.Context) error {
	interval := c.cfg.Loop.Interval()
	for {
		result, err := c.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.log.WithField("result", result.Status.String()).Info("cycle complete")

		if interval == 0 {
			// Single pass: surface a per-file failure in the exit status.
			return result.Err
		}
		c.log.WithField("interval", interval.String()).Debug("sleeping until next cycle")
		if err := c.sleeper.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}
