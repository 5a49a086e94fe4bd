// Package cli wires configuration, the service registry and the container
// runtime into the fleetctl command tree.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nholik/fleetctl/internal/backup"
	"github.com/nholik/fleetctl/internal/config"
	"github.com/nholik/fleetctl/internal/health"
	"github.com/nholik/fleetctl/internal/lifecycle"
	"github.com/nholik/fleetctl/internal/logging"
	"github.com/nholik/fleetctl/internal/registry"
	"github.com/nholik/fleetctl/internal/runtime"
)

// Exit codes mirror the health command contract: scripts key off 2 to tell a
// degraded-but-serving fleet apart from a hard failure.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitDegraded = 2
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app holds the wired dependencies shared by all subcommands. Construction is
// deferred to the first RunE so commands like help and completion never touch
// the docker socket.
type app struct {
	logger zerolog.Logger
	cfg    config.Config
	reg    *registry.Registry

	docker      *runtime.DockerClient
	units       *runtime.ComposeRunner
	driver      *lifecycle.Driver
	scaler      *lifecycle.Scaler
	checker     *health.Checker
	coordinator *backup.Coordinator

	jsonLogs bool
}

func newApp() *app {
	return &app{}
}

// setup loads configuration and the registry and connects the runtime.
func (a *app) setup() error {
	if a.jsonLogs {
		a.logger = logging.New()
	} else {
		a.logger = logging.NewConsole()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	a.reg = reg

	docker, err := runtime.NewDockerClient(cfg.DockerHost, cfg.HealthTimeout)
	if err != nil {
		return fmt.Errorf("connect docker: %w", err)
	}
	a.docker = docker

	a.units = runtime.NewComposeRunner(a.logger)
	a.driver = lifecycle.NewDriver(a.logger, reg, a.units, docker, cfg.Network)
	a.scaler = lifecycle.NewScaler(a.driver)
	a.checker = health.NewChecker(a.logger, reg, cfg.HealthTimeout)
	a.coordinator = backup.NewCoordinator(a.logger, reg, cfg.BackupDir, cfg.MySQLRootPassword)

	return nil
}

func (a *app) close() {
	if a.docker != nil {
		_ = a.docker.Close()
	}
}

// scopeArg normalizes the optional positional scope argument.
func scopeArg(args []string) string {
	if len(args) == 0 {
		return registry.ScopeAll
	}
	return args[0]
}
