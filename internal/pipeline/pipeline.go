// Package pipeline runs decode, transform and encode as one invocation.
//
// A run validates every requested transform while Idle, then moves through
// Decoding, Transforming and Encoding to Done. Transforms are dispatched in a
// fixed order no matter how the request lists them:
//
//	Geometry -> Filter -> Adjustment -> AI feature
//
// Each run owns its buffer and any edge map derived from it; nothing is
// shared or cached between runs. Cancellation is coarse: the context is
// checked between stages, never inside a pixel loop.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/pixelkit-mcp/internal/detection"
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// DefaultQuality is the encoder quality used when a pipeline is built
// without one.
const DefaultQuality = 0.92

// Options configures a Pipeline.
type Options struct {
	// MaxPixels caps decoded and encoded images. Zero selects
	// imaging.DefaultMaxPixels.
	MaxPixels int
	// DefaultFormat is used by NewRequest. Empty selects PNG.
	DefaultFormat imaging.Format
	// DefaultQuality is used by NewRequest. Zero selects DefaultQuality.
	DefaultQuality float64
	// Logger receives run events. The zero value uses the global logger.
	Logger *zerolog.Logger
}

// Pipeline executes requests. It holds only immutable configuration, so one
// Pipeline may serve concurrent runs.
type Pipeline struct {
	codec          imaging.Codec
	defaultFormat  imaging.Format
	defaultQuality float64
	logger         zerolog.Logger
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		codec:          imaging.Codec{MaxPixels: opts.MaxPixels},
		defaultFormat:  opts.DefaultFormat,
		defaultQuality: opts.DefaultQuality,
		logger:         log.Logger,
	}
	if p.codec.MaxPixels == 0 {
		p.codec.MaxPixels = imaging.DefaultMaxPixels
	}
	if p.defaultFormat == "" {
		p.defaultFormat = imaging.FormatPNG
	}
	if p.defaultQuality == 0 {
		p.defaultQuality = DefaultQuality
	}
	if opts.Logger != nil {
		p.logger = *opts.Logger
	}
	return p
}

// Codec returns the codec the pipeline decodes and encodes with.
func (p *Pipeline) Codec() imaging.Codec { return p.codec }

// Request is one pipeline invocation.
type Request struct {
	Source     imaging.Source
	Transforms []Transform
	Format     imaging.Format
	// Quality runs 0..1 and only affects lossy formats.
	Quality float64
}

// NewRequest builds a request using the pipeline's default format and
// quality.
func (p *Pipeline) NewRequest(src imaging.Source, transforms ...Transform) Request {
	return Request{
		Source:     src,
		Transforms: transforms,
		Format:     p.defaultFormat,
		Quality:    p.defaultQuality,
	}
}

// Result describes a finished run.
type Result struct {
	RunID    string
	State    State
	Failure  FailureKind
	Artifact *imaging.Artifact
	// Background is set when the run replaced a background.
	Background *detection.BackgroundStats
	Duration   time.Duration
}

// Run executes req.
//
// The returned Result is never nil: on failure it carries the run ID, the
// Failed state and the failure kind alongside the error. Errors are
// *imaging.ConfigError, *imaging.DecodeError, *imaging.EncodeError, or the
// context's error when ctx ends between stages.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run_id", res.RunID).Logger()
	m := &machine{state: StateIdle}

	finish := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		if err != nil {
			m.fail(err)
			res.State, res.Failure = m.state, m.failure
			logger.Warn().Err(err).Str("failure", string(m.failure)).Dur("elapsed", res.Duration).Msg("Pipeline run failed")
			return res, err
		}
		res.State = m.state
		logger.Debug().Dur("elapsed", res.Duration).Int("bytes", res.Artifact.Size()).Msg("Pipeline run complete")
		return res, nil
	}

	plan, err := NewPlan(req.Transforms)
	if err != nil {
		return finish(err)
	}
	format := req.Format
	if format == "" {
		format = p.defaultFormat
	}

	if err := p.step(ctx, m, StateDecoding); err != nil {
		return finish(err)
	}
	t := time.Now()
	buf, err := p.codec.Decode(req.Source)
	if err != nil {
		return finish(err)
	}
	logger.Debug().Int("width", buf.Width).Int("height", buf.Height).Dur("elapsed", time.Since(t)).Msg("Decoded source")

	if err := p.step(ctx, m, StateTransforming); err != nil {
		return finish(err)
	}
	t = time.Now()
	buf, stats, err := Execute(buf, plan)
	if err != nil {
		return finish(err)
	}
	res.Background = stats
	logger.Debug().Int("transforms", plan.Len()).Dur("elapsed", time.Since(t)).Msg("Applied transforms")

	if err := p.step(ctx, m, StateEncoding); err != nil {
		return finish(err)
	}
	t = time.Now()
	art, err := p.codec.Encode(buf, format, req.Quality)
	if err != nil {
		return finish(err)
	}
	res.Artifact = art
	logger.Debug().Str("format", string(format)).Int("bytes", art.Size()).Dur("elapsed", time.Since(t)).Msg("Encoded artifact")

	if err := m.to(StateDone); err != nil {
		return finish(err)
	}
	return finish(nil)
}

// step checks ctx and advances the machine.
func (p *Pipeline) step(ctx context.Context, m *machine, next State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run abandoned before %s: %w", next, err)
	}
	return m.to(next)
}

// Execute applies a validated plan to buf in dispatch order and returns the
// transformed buffer along with background statistics when the plan
// replaced a background.
func Execute(buf *imaging.Buffer, plan *Plan) (*imaging.Buffer, *detection.BackgroundStats, error) {
	var err error
	if plan.Geometry != nil {
		if buf, err = ApplyGeometry(buf, *plan.Geometry); err != nil {
			return nil, nil, err
		}
	}
	if plan.Filter != nil {
		if buf, err = ApplyFilter(buf, *plan.Filter); err != nil {
			return nil, nil, err
		}
	}
	if plan.Adjustment != nil {
		buf = ApplyAdjustment(buf, *plan.Adjustment)
	}
	if plan.AI != nil {
		return applyAI(buf, *plan.AI)
	}
	return buf, nil, nil
}
