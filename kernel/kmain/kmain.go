// Package kmain implements the kernel monitor: the boot sequencer and the
// idle loop that keeps the system status up to date.
package kmain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gopheros/kcore/kernel"
	"github.com/gopheros/kcore/kernel/config"
	"github.com/gopheros/kcore/kernel/kfmt"
	"github.com/gopheros/kcore/kernel/mm/pmm"
	"github.com/gopheros/kcore/kernel/proc"
	"github.com/gopheros/kcore/kernel/security"
	"github.com/gopheros/kcore/kernel/security/access"
	"github.com/gopheros/kcore/kernel/status"
	"go.uber.org/zap"
)

var (
	// ErrHalted is returned by every operation on a halted kernel.
	ErrHalted = &kernel.Error{Module: "kmain", Message: "system halted"}

	// ErrNotBooted is returned when the monitor is used before Boot.
	ErrNotBooted = &kernel.Error{Module: "kmain", Message: "system not booted"}

	// ErrAlreadyBooted is returned when Boot is invoked more than once.
	ErrAlreadyBooted = &kernel.Error{Module: "kmain", Message: "system already booted"}

	// haltFn runs once the monitor has entered the halted state. It is
	// mocked by tests.
	haltFn = func() {}
)

// Options configures a Monitor.
type Options struct {
	Frames          uint32
	ReservedFrames  uint32
	ProcessCapacity int

	// Bootstrap lists the security levels of the processes created by
	// Boot, in creation order.
	Bootstrap []security.Level

	// ViolationHook, if set, is invoked by Tick whenever the security
	// violation counter grew since the previous tick. It receives a
	// status snapshot and must not modify kernel state.
	ViolationHook func(status.SystemStatus)
}

// DefaultOptions returns a 1024-frame pool with no reserved frames that
// boots one SYSTEM and one USER process.
func DefaultOptions() Options {
	return Options{
		Frames:          pmm.DefaultCapacity,
		ProcessCapacity: proc.DefaultCapacity,
		Bootstrap:       []security.Level{security.System, security.User},
	}
}

// OptionsFromConfig converts a validated configuration to monitor options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	levels, err := cfg.BootstrapLevels()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Frames:          cfg.Memory.Frames,
		ReservedFrames:  cfg.Memory.ReservedFrames,
		ProcessCapacity: cfg.Processes.Capacity,
		Bootstrap:       levels,
	}, nil
}

// Monitor owns all kernel state. Each Monitor is an isolated kernel
// instance; nothing is shared between instances.
type Monitor struct {
	opts   Options
	logger *zap.Logger

	pool      pmm.PageFramePool
	security  security.Context
	procs     *proc.Table
	validator *access.Validator
	status    status.SystemStatus

	lastViolations uint32
}

// New returns an unbooted monitor. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Monitor{
		opts:   opts,
		logger: logger,
	}
	m.procs = proc.NewTable(opts.ProcessCapacity, &m.pool, &m.security, &m.status, logger)
	m.validator = access.NewValidator(&m.pool, &m.status, logger)

	return m
}

// Boot initializes the frame pool and the security context, in that order,
// and then creates the bootstrap processes. Any failure halts the system:
// the monitor enters the halted state and the error is returned.
func (m *Monitor) Boot() *kernel.Error {
	switch m.status.State {
	case status.Halted:
		return ErrHalted
	case status.Running:
		return ErrAlreadyBooted
	}

	m.status.BootID = uuid.New()
	log := m.logger.With(zap.String("module", "kmain"))
	log.Info("booting kernel",
		zap.Stringer("boot_id", m.status.BootID),
		zap.Uint32("frames", m.opts.Frames),
		zap.Uint32("reserved_frames", m.opts.ReservedFrames),
	)

	if err := m.pool.Init(m.opts.Frames, m.opts.ReservedFrames); err != nil {
		return m.Halt(err)
	}
	log.Info("frame pool ready",
		zap.Uint32("capacity", m.pool.Capacity()),
		zap.Uint32("free", m.pool.FreeCount()),
	)

	if err := m.security.Init(); err != nil {
		return m.Halt(err)
	}
	log.Info("security context ready", zap.Stringer("access_level", m.security.AccessLevel))

	m.status.State = status.Running

	for _, level := range m.opts.Bootstrap {
		pid, err := m.procs.Create(level)
		if err != nil {
			return m.Halt(err)
		}
		log.Info("bootstrap process created", zap.Uint32("pid", uint32(pid)), zap.Stringer("level", level))
	}

	m.status.MemoryUsedFrames = m.pool.UsedCount()
	return nil
}

// Halt stops the kernel after an unrecoverable error. The monitor stays in
// the halted state for the rest of its lifetime. Halt returns err.
func (m *Monitor) Halt(err *kernel.Error) *kernel.Error {
	code := status.InitFailed
	if err == pmm.ErrCapacity {
		code = status.CapacityMisconfigured
	}

	m.status.State = status.Halted
	m.status.RecordError(code)
	kfmt.PrintPanic(m.logger, err.Module, err.Message)
	haltFn()

	return err
}

// Tick advances the uptime counter and refreshes the memory usage. When the
// violation counter grew since the previous tick it logs a warning and runs
// the violation hook; no remedial action is taken.
func (m *Monitor) Tick() *kernel.Error {
	if err := m.checkRunning(); err != nil {
		return err
	}

	m.status.UptimeTicks++
	m.status.MemoryUsedFrames = m.pool.Capacity() - m.pool.FreeCount()

	if v := m.status.SecurityViolations; v != m.lastViolations {
		m.logger.Warn("security violations detected",
			zap.String("module", "kmain"),
			zap.Uint32("new", v-m.lastViolations),
			zap.Uint32("total", v),
		)
		m.lastViolations = v

		if m.opts.ViolationHook != nil {
			m.opts.ViolationHook(m.status.Snapshot())
		}
	}

	return nil
}

// Run executes the idle loop, calling Tick every interval. An interval of
// zero ticks back to back. Run returns when ctx is done, after maxTicks
// ticks if maxTicks is not zero, or when Tick fails.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, maxTicks uint64) *kernel.Error {
	if err := m.checkRunning(); err != nil {
		return err
	}

	var tickCh <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	for ticks := uint64(0); maxTicks == 0 || ticks < maxTicks; ticks++ {
		if tickCh != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tickCh:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := m.Tick(); err != nil {
			return err
		}
	}

	return nil
}

func (m *Monitor) checkRunning() *kernel.Error {
	switch m.status.State {
	case status.Off:
		return ErrNotBooted
	case status.Halted:
		return ErrHalted
	}
	return nil
}

// CreateProcess creates a process running at level.
func (m *Monitor) CreateProcess(level security.Level) (proc.PID, *kernel.Error) {
	if err := m.checkRunning(); err != nil {
		return proc.FreePID, err
	}
	return m.procs.Create(level)
}

// Check decides whether pid may perform an access of type at on addr.
func (m *Monitor) Check(pid proc.PID, addr uintptr, at access.Type) (access.Decision, *kernel.Error) {
	if err := m.checkRunning(); err != nil {
		return access.Decision{}, err
	}

	p, err := m.procs.Lookup(pid)
	if err != nil {
		return access.Decision{}, err
	}
	return m.validator.Decide(p, addr, at), nil
}

// Lock quarantines pid.
func (m *Monitor) Lock(pid proc.PID) *kernel.Error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	return m.procs.Lock(pid)
}

// Status returns a snapshot of the system status.
func (m *Monitor) Status() status.SystemStatus {
	return m.status.Snapshot()
}

// Processes returns a snapshot of the live processes.
func (m *Monitor) Processes() []proc.Process {
	return m.procs.Processes()
}

// Pool exposes the frame pool for inspection.
func (m *Monitor) Pool() *pmm.PageFramePool {
	return &m.pool
}

// Security exposes the security context for inspection.
func (m *Monitor) Security() *security.Context {
	return &m.security
}
