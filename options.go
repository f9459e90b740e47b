package wordfreq

import (
	"runtime"
	"time"

	streamerrors "github.com/tamirms/wordfreq/errors"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

const (
	defaultChunkExponent = 20 // 1 MiB blocks
	defaultBinsExponent  = 20

	// maxChunkExponent caps a block at 1 GiB.
	maxChunkExponent = 30

	// slotOverprovision is how many buffer slots exist beyond one per worker,
	// so the reader can fill ahead while every worker is busy.
	slotOverprovision = 5
)

// Option is a functional option for configuring a count.
type Option func(*config)

type config struct {
	workers       int
	chunkExponent int
	alignment     int // 0 means detect from the filesystem
	binsExponent  int
	seed          uint64
	sbox          *[256]uint64
	useMmap       bool
	pinning       bool

	progressEvery time.Duration
	progressFn    func(Progress)
}

func defaultConfig() *config {
	return &config{
		workers:       0, // 0 means runtime.GOMAXPROCS(0)
		chunkExponent: defaultChunkExponent,
		binsExponent:  defaultBinsExponent,
		seed:          0x5eed0f3a2c6b91d7, // Arbitrary default; overridden via WithSeed
		pinning:       true,
	}
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workers < 0 {
		return nil, streamerrors.ErrInvalidWorkers
	}
	if cfg.chunkExponent > maxChunkExponent {
		return nil, streamerrors.ErrChunkTooLarge
	}
	if cfg.chunkExponent < 0 {
		return nil, streamerrors.ErrChunkTooSmall
	}
	if cfg.alignment < 0 || cfg.alignment&(cfg.alignment-1) != 0 {
		return nil, streamerrors.ErrInvalidAlignment
	}
	return cfg, nil
}

func (c *config) workerCount() int {
	if c.workers > 0 {
		return c.workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *config) tokenizer() *tokenize.Tokenizer {
	if c.sbox != nil {
		return tokenize.FromValues(*c.sbox)
	}
	return tokenize.New(c.seed)
}

// WithWorkers sets the number of tokenizing workers.
// The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithChunkExponent sets the read block size to 1<<exp bytes.
func WithChunkExponent(exp int) Option {
	return func(c *config) {
		c.chunkExponent = exp
	}
}

// WithAlignment overrides the I/O alignment the shadow margins and slots
// are rounded to. It must be a power of two. By default the filesystem
// block size of the input is used.
func WithAlignment(n int) Option {
	return func(c *config) {
		c.alignment = n
	}
}

// WithBinsExponent sets the hash directory of every table to 1<<exp bins.
func WithBinsExponent(exp int) Option {
	return func(c *config) {
		c.binsExponent = exp
	}
}

// WithSeed sets the seed the 256 hash substitution constants are derived from.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithSbox supplies the 256 hash substitution constants directly, for
// callers that draw them from their own generator. Uppercase entries are
// replaced by their lowercase counterparts. Overrides WithSeed.
func WithSbox(values [256]uint64) Option {
	return func(c *config) {
		c.sbox = &values
	}
}

// WithMmap reads the input through a read-only memory map instead of
// read(2) calls. Only Count honors it.
func WithMmap(enabled bool) Option {
	return func(c *config) {
		c.useMmap = enabled
	}
}

// WithPinning controls whether each worker locks its OS thread and pins it
// to its own CPU. Pinning is best-effort and only implemented on Linux.
func WithPinning(enabled bool) Option {
	return func(c *config) {
		c.pinning = enabled
	}
}

// WithProgress calls fn with a snapshot every interval while the stream is
// being read, and once more when reading ends.
func WithProgress(every time.Duration, fn func(Progress)) Option {
	return func(c *config) {
		c.progressEvery = every
		c.progressFn = fn
	}
}
