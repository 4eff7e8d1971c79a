package dmheap

import "unsafe"

// Context is a single managed heap carved out of one caller-provided
// buffer. Every public method brackets its body with the configured
// CriticalSection.
type Context struct {
	region []byte

	defaultAlignment uintptr
	maxModuleName    int

	freeList   *blockHeader
	usedList   *blockHeader
	moduleList *moduleRecord

	logger   Logger
	critical CriticalSection

	memoryLock bool
	locked     bool

	initialized bool
}

// config holds the construction-time options for NewContext.
type config struct {
	defaultAlignment uintptr
	maxModuleName    int
	logger           Logger
	critical         CriticalSection
	memoryLock       bool
}

func defaultConfig() config {
	return config{
		defaultAlignment: unsafe.Alignof(blockHeader{}),
		maxModuleName:    64,
		logger:           NewNopLogger(),
		critical:         NewMutexCriticalSection(),
		memoryLock:       false,
	}
}

// Option configures a Context at construction time.
type Option func(*config)

// WithDefaultAlignment overrides the alignment used when a caller does not
// request one explicitly. Must be a power of two; validated in NewContext.
func WithDefaultAlignment(n uintptr) Option {
	return func(c *config) { c.defaultAlignment = n }
}

// WithLogger overrides the info/warning/error sink. Default is NopLogger.
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCriticalSection overrides the enter/exit mutual-exclusion hook pair.
// Default is a sync.Mutex wrapper.
func WithCriticalSection(cs CriticalSection) Option {
	return func(c *config) { c.critical = cs }
}

// WithModuleCapacity is an alias of WithMaxModuleName kept for readability
// at call sites that think of this as a capacity rather than a length.
func WithModuleCapacity(n int) Option {
	return WithMaxModuleName(n)
}

// WithMaxModuleName bounds how many bytes of a module name are retained.
// Longer names are silently truncated.
func WithMaxModuleName(n int) Option {
	return func(c *config) { c.maxModuleName = n }
}

// WithMemoryLock requests that Init best-effort pin the backing buffer in
// physical memory via unix.Mlock, and Close unpin it via unix.Munlock.
// Failure to pin logs a warning and never blocks initialization.
func WithMemoryLock(enabled bool) Option {
	return func(c *config) { c.memoryLock = enabled }
}

func isPowerOfTwo(n uintptr) bool {
	return n > 0 && n&(n-1) == 0
}

// NewContext builds and initializes a Context over buffer in one call,
// sugar over Init for the common one-shot case.
func NewContext(buffer []byte, opts ...Option) (*Context, error) {
	c := &Context{}
	if err := c.Init(buffer, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// Init (re)initializes c over buffer, discarding any prior state. Calling
// Init again on an already-initialized Context resets it onto the new
// buffer; every pointer handed out against the old buffer is dead.
func (c *Context) Init(buffer []byte, opts ...Option) error {
	if len(buffer) <= int(blockHeaderSize) {
		return ErrInvalidBuffer
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !isPowerOfTwo(cfg.defaultAlignment) || cfg.defaultAlignment < unsafe.Alignof(blockHeader{}) {
		return ErrInvalidAlignment
	}

	// Reinitializing a live context must appear atomic to callers still
	// operating against the old region, so the old critical section (when
	// one exists) brackets the swap. The configured one takes over for
	// every later call. On first construction there is nothing to lock.
	if c.critical != nil {
		c.critical.Enter()
		defer func(old CriticalSection) { old.Exit() }(c.critical)
	}

	if c.locked && c.memoryLock {
		unlockMemory(c.region)
	}

	c.region = buffer
	c.defaultAlignment = cfg.defaultAlignment
	c.maxModuleName = cfg.maxModuleName
	c.logger = cfg.logger
	c.critical = cfg.critical
	c.memoryLock = cfg.memoryLock
	c.locked = false

	c.usedList = nil
	c.moduleList = nil
	c.freeList = createBlock(unsafe.Pointer(&buffer[0]), uintptr(len(buffer)))

	if c.memoryLock {
		if err := lockMemory(c.region); err != nil {
			c.logger.Warnf("mlock failed: %v", err)
		} else {
			c.locked = true
		}
	}

	c.initialized = true
	c.logger.Infof("context initialized over %d bytes", len(buffer))

	return nil
}

// IsInitialized reports whether c is ready to serve allocations.
func (c *Context) IsInitialized() bool {
	if c == nil {
		return false
	}

	c.critical.Enter()
	defer c.critical.Exit()

	return c.isInitializedUnlocked()
}

func (c *Context) isInitializedUnlocked() bool {
	return c.initialized
}

// Close tears the context down: it unpins the backing buffer if it was
// locked and marks the context uninitialized. The buffer itself is left
// to the caller; Close never frees or zeroes caller memory beyond
// releasing the mlock pin.
func (c *Context) Close() error {
	if c == nil || !c.initialized {
		return nil
	}

	c.critical.Enter()
	defer c.critical.Exit()

	if c.locked {
		unlockMemory(c.region)
		c.locked = false
	}

	c.initialized = false
	c.freeList = nil
	c.usedList = nil
	c.moduleList = nil
	c.region = nil

	return nil
}

var defaultContext *Context

// Default returns the process-wide default Context, creating an
// uninitialized one on first use. Most hosts call Init or NewContext on
// their own Context; Default exists for host code that expects one
// implicit process-wide heap, such as internal/hostshim.
func Default() *Context {
	if defaultContext == nil {
		defaultContext = &Context{logger: NewNopLogger(), critical: NewMutexCriticalSection()}
	}

	return defaultContext
}

// SetDefault installs c as the process-wide default Context returned by
// Default.
func SetDefault(c *Context) {
	defaultContext = c
}
