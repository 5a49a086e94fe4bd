// Package backup snapshots and restores the fleet's stateful stores.
//
// Restores across multiple stores are NOT transactional: each store is an
// independent operation, and a failure restoring the second store leaves the
// first already restored. That matches the underlying dump tools and is an
// accepted limitation, not a bug to paper over.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/registry"
)

// Store names a stateful backing store with a native dump mechanism.
type Store string

const (
	StorePostgres Store = "postgres"
	StoreMySQL    Store = "mysql"
)

// Stores lists every backed-up store in backup order.
var Stores = []Store{StorePostgres, StoreMySQL}

var (
	// ErrConfirmationRequired rejects a restore without the explicit
	// confirmation flag. Overwriting live state is never the default path.
	ErrConfirmationRequired = errors.New("restore requires explicit confirmation")

	// ErrRestoreNotFound means the backup artifact is missing or empty.
	ErrRestoreNotFound = errors.New("backup artifact not found or empty")

	// ErrRestoreTargetUnreachable means the store did not accept the stream.
	ErrRestoreTargetUnreachable = errors.New("restore target unreachable")
)

// BackupError reports a failed snapshot of one store.
type BackupError struct {
	Store Store
	Err   error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s: %v", e.Store, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// Record describes one completed backup artifact. Records are append-only;
// a restore consumes exactly one record identified by path.
type Record struct {
	Store     Store     `json:"store"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
}

// commandRunner streams a subprocess's stdout to a writer or its stdin from
// a reader. An interface so tests can run without docker or the dump tools.
type commandRunner interface {
	Output(ctx context.Context, stdout io.Writer, name string, args ...string) error
	Input(ctx context.Context, stdin io.Reader, name string, args ...string) error
}

// Coordinator drives dumps and restores through each store's native tooling,
// executed inside the store's container.
type Coordinator struct {
	logger        zerolog.Logger
	reg           *registry.Registry
	dir           string
	mysqlPassword string
	run           commandRunner
	now           func() time.Time
}

// Option customizes Coordinator behavior.
type Option func(*Coordinator)

// WithCommandRunner overrides subprocess execution (for tests).
func WithCommandRunner(run commandRunner) Option {
	return func(c *Coordinator) {
		c.run = run
	}
}

// WithClock overrides timestamping (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator constructs a Coordinator writing artifacts under dir.
func NewCoordinator(logger zerolog.Logger, reg *registry.Registry, dir, mysqlPassword string, opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		logger:        logger,
		reg:           reg,
		dir:           dir,
		mysqlPassword: mysqlPassword,
		run:           execRunner{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator
}

// Backup dumps the store to a timestamped artifact. Partial or empty output
// is removed and never registered as a valid record.
func (c *Coordinator) Backup(ctx context.Context, store Store) (Record, error) {
	args, err := c.dumpCommand(store)
	if err != nil {
		return Record{}, &BackupError{Store: store, Err: err}
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Record{}, &BackupError{Store: store, Err: err}
	}

	timestamp := c.now().UTC()
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.sql", store, timestamp.Format("20060102-150405")))

	record, err := c.dumpToFile(ctx, store, path, timestamp, args)
	if err != nil {
		_ = os.Remove(path)
		c.logger.Error().Err(err).Str("store", string(store)).Msg("backup failed")
		return Record{}, &BackupError{Store: store, Err: err}
	}

	c.logger.Info().
		Str("store", string(store)).
		Str("path", record.Path).
		Int64("bytes", record.Size).
		Msg("backup written")
	return record, nil
}

func (c *Coordinator) dumpToFile(ctx context.Context, store Store, path string, timestamp time.Time, args []string) (Record, error) {
	file, err := os.Create(path)
	if err != nil {
		return Record{}, err
	}

	runErr := c.run.Output(ctx, file, "docker", args...)
	if closeErr := file.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return Record{}, runErr
	}

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, err
	}
	if info.Size() == 0 {
		return Record{}, errors.New("dump produced no output")
	}

	return Record{Store: store, Timestamp: timestamp, Path: path, Size: info.Size()}, nil
}

// Restore streams the artifact at path into the store. The confirmed flag
// must be set by the operator; a missing or empty artifact fails before any
// write reaches the target.
func (c *Coordinator) Restore(ctx context.Context, store Store, path string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	args, err := c.restoreCommand(store)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrRestoreNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRestoreNotFound, path)
	}
	defer file.Close()

	if err := c.run.Input(ctx, file, "docker", args...); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreTargetUnreachable, err)
	}

	c.logger.Info().
		Str("store", string(store)).
		Str("path", path).
		Msg("restore completed")
	return nil
}

// dumpCommand builds the compose exec invocation for the store's dump tool.
func (c *Coordinator) dumpCommand(store Store) ([]string, error) {
	desc, err := c.reg.Lookup(string(store))
	if err != nil {
		return nil, err
	}

	base := composeExecArgs(desc.Handle)
	switch store {
	case StorePostgres:
		return append(base, "pg_dump", "--username", "postgres", "--clean", "--if-exists", "litellm"), nil
	case StoreMySQL:
		return append(base, "mysqldump", "--user", "root", "--password="+c.mysqlPassword, "rag_flow"), nil
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}

// restoreCommand builds the compose exec invocation for the store's client.
func (c *Coordinator) restoreCommand(store Store) ([]string, error) {
	desc, err := c.reg.Lookup(string(store))
	if err != nil {
		return nil, err
	}

	base := composeExecArgs(desc.Handle)
	switch store {
	case StorePostgres:
		return append(base, "psql", "--username", "postgres", "litellm"), nil
	case StoreMySQL:
		return append(base, "mysql", "--user", "root", "--password="+c.mysqlPassword, "rag_flow"), nil
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}

// composeExecArgs targets the store's container without a TTY so streams
// pass through untouched.
func composeExecArgs(handle registry.Handle) []string {
	return []string{
		"compose",
		"--file", handle.ComposeFile,
		"--project-name", handle.Project,
		"exec", "-T", handle.Service,
	}
}
