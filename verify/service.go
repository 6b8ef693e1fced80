package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/psn-tools/pkgcheck/keys"
	"github.com/psn-tools/pkgcheck/pkgfile"
)

// Service checks package files
type Service struct {
	pipeline *Pipeline
	logger   *zap.SugaredLogger
	workers  int
	progress pkgfile.Progress
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWorkers bounds the number of packages checked at once. Values below one
// mean one.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithProgress reports processed bytes to p. Every checked file advances it
// by its full size, whether or not it was hashed.
func WithProgress(p pkgfile.Progress) Option {
	return func(s *Service) {
		s.progress = p
	}
}

// NewService creates a new package checking service
func NewService(set *keys.Set, opts ...Option) *Service {
	s := &Service{
		pipeline: NewPipeline(set),
		logger:   zap.NewNop().Sugar(),
		workers:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline returns the section pipeline used by the service
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// CheckAll checks paths with up to the configured number of workers. Results
// keep the order of paths. The error is only set when ctx is cancelled.
func (s *Service) CheckAll(ctx context.Context, paths []string) ([]*PackageResult, error) {
	results := make([]*PackageResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.Check(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Check checks a single package file. Problems with the file are recorded in
// the result; the error is only set when ctx is cancelled.
func (s *Service) Check(ctx context.Context, path string) (*PackageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &PackageResult{Path: path}
	log := s.logger.With("path", path)

	counter := &byteCounter{next: s.progress}
	err := s.check(ctx, res, counter)
	if s.progress != nil && res.Size > counter.n.Load() {
		s.progress.Add64(res.Size - counter.n.Load())
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		res.Err = err
		log.Warnw("failed to check package", "error", err)
	case res.Passed():
		log.Debugw("package passed", "header", res.Header, "metadata", res.Meta)
	default:
		log.Infow("package failed",
			"invalid", res.Invalid,
			"truncated", res.Truncated,
			"header", res.Header,
			"metadata", res.Meta,
			"checksum", res.Checksum)
	}
	return res, nil
}

func (s *Service) check(ctx context.Context, res *PackageResult, progress pkgfile.Progress) error {
	f, err := os.Open(res.Path)
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat package: %w", err)
	}
	res.Size = info.Size()
	s.logger.Debugw("checking package", "path", res.Path, "size", res.Size)

	if res.Size < pkgfile.MinSize {
		res.Invalid = true
		return nil
	}

	header, err := pkgfile.ReadHeader(f)
	if errors.Is(err, pkgfile.ErrBadMagic) || errors.Is(err, pkgfile.ErrTooSmall) {
		res.Invalid = true
		return nil
	}
	if err != nil {
		return err
	}
	res.ContentID = header.ContentID

	hs := header.HeaderSection()
	res.Header, err = s.pipeline.ValidateSection(hs.Body, hs.Digest)
	if err != nil {
		return fmt.Errorf("failed to validate header: %w", err)
	}
	res.HeaderChecked = true

	if uint64(res.Size) < header.TotalSize {
		res.Truncated = true
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	meta, err := header.ReadMetadata(f, res.Size)
	if err != nil {
		return err
	}
	res.Meta, err = s.pipeline.ValidateSection(meta.Body, meta.Digest)
	if err != nil {
		return fmt.Errorf("failed to validate metadata: %w", err)
	}
	res.MetaChecked = true

	sum, err := pkgfile.Checksum(ctx, f, res.Size, progress)
	if err != nil {
		return err
	}
	res.Checksum = checksumStatus(sum)
	return nil
}

// checksumStatus maps a whole-file checksum onto its reported status. A
// collision outranks a matching trailer.
func checksumStatus(sum pkgfile.ChecksumResult) ChecksumStatus {
	switch {
	case sum.Collision:
		return ChecksumCollision
	case sum.Match():
		return ChecksumOK
	default:
		return ChecksumMismatch
	}
}

// byteCounter forwards progress and remembers how much it forwarded.
type byteCounter struct {
	next pkgfile.Progress
	n    atomic.Int64
}

func (c *byteCounter) Add64(n int64) int64 {
	total := c.n.Add(n)
	if c.next != nil {
		c.next.Add64(n)
	}
	return total
}
