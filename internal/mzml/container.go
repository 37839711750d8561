package mzml

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Container gives access to the scans of an mzML file on disk.
// The file is parsed completely by Open, after which all methods
// are safe for concurrent use.
type Container struct {
	path    string
	logger  zerolog.Logger
	workers int

	mu     sync.Mutex
	opened bool
	f      MzML
}

// ContainerOption configures a Container
type ContainerOption func(*Container)

// WithLogger sets the logger, the default discards all output
func WithLogger(l zerolog.Logger) ContainerOption {
	return func(c *Container) {
		c.logger = l
	}
}

// WithWorkers sets the number of goroutines used by GetAllScans
func WithWorkers(n int) ContainerOption {
	return func(c *Container) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewContainer returns a Container for path without opening it
func NewContainer(path string, opts ...ContainerOption) *Container {
	c := &Container{
		path:    path,
		logger:  nopLogger,
		workers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open returns an opened Container for path
func Open(path string, opts ...ContainerOption) (*Container, error) {
	c := NewContainer(path, opts...)
	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

// Open reads and parses the file. Calling Open on an opened
// Container does nothing.
func (c *Container) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil
	}
	r, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ContainerError{Path: c.path, Err: ErrFileNotFound}
		}
		return &ContainerError{Path: c.path, Err: err}
	}
	defer r.Close()
	f, err := Read(r)
	if err != nil {
		return &ContainerError{Path: c.path, Err: err}
	}
	c.f = f
	c.opened = true
	mode := "plain"
	if f.Indexed() {
		mode = "indexed"
	}
	c.logger.Debug().Str("file", c.path).Str("mode", mode).Msg("opened mzML")
	c.logger.Info().Str("file", c.path).Int("scans", f.NumSpecs()).Msg("read scans")
	return nil
}

// Path returns the file name of the container
func (c *Container) Path() string {
	return c.path
}

// MzML returns the parsed file, e.g. for writing a modified copy
func (c *Container) MzML() *MzML {
	return &c.f
}

// ScanCount returns the number of scans
func (c *Container) ScanCount() int {
	return c.f.NumSpecs()
}

// GetScan decodes one scan. oneBasedScanNumber runs from 1 to ScanCount().
func (c *Container) GetScan(oneBasedScanNumber int) (*Scan, error) {
	s, err := c.f.extractScan(oneBasedScanNumber - 1)
	if err != nil {
		return nil, err
	}
	if p := s.Precursor; p != nil {
		if _, ok := c.f.id2Index[p.SpectrumRef]; !ok {
			c.logger.Debug().Int("scan", oneBasedScanNumber).
				Int("precursor", p.PrecursorScanNumber).
				Msg("precursor scan derived from MS level")
		}
	}
	return s, nil
}

// GetAllScans decodes all scans in file order. The first scan that
// fails to decode aborts the call.
func (c *Container) GetAllScans(ctx context.Context) ([]*Scan, error) {
	scans := make([]*Scan, c.ScanCount())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range scans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := c.GetScan(i + 1)
			if err != nil {
				return err
			}
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scans, nil
}

// ClosestScanIndexByRetentionTime returns the one-based number of the
// scan closest to rt (minutes). See MzML.ClosestScanNumber.
func (c *Container) ClosestScanIndexByRetentionTime(rt float64) int {
	return c.f.ClosestScanNumber(rt)
}

// MS1Scan summarizes an MS1 scan for quantification
type MS1Scan struct {
	OneBasedScanNumber int
	ZeroBasedMS1Index  int
	RetentionTime      float64
	TotalIonCurrent    float64
	InjectionTime      *float64
}

// MS1Scans returns the MS1 scans in file order. Scans with a retention
// time or TIC that can't be determined are an error.
func (c *Container) MS1Scans() ([]MS1Scan, error) {
	var res []MS1Scan
	for i, level := range c.f.msLevels {
		if level != 1 {
			continue
		}
		rt, err := c.f.RetentionTime(i)
		if err != nil {
			return nil, err
		}
		tic, err := c.f.requiredTIC(i)
		if err != nil {
			return nil, err
		}
		info := MS1Scan{
			OneBasedScanNumber: i + 1,
			ZeroBasedMS1Index:  len(res),
			RetentionTime:      rt,
			TotalIonCurrent:    tic,
		}
		if it, err := c.f.IonInjectionTime(i); err == nil && !math.IsNaN(it) {
			info.InjectionTime = &it
		}
		res = append(res, info)
	}
	return res, nil
}
