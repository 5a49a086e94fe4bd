// Package composefile reads the compose definition behind a lifecycle unit.
// The orchestrator never renders or mutates these files; it only inspects
// them to validate scale targets and to list images for model updates.
package composefile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

const (
	defaultDeployMode   = "replicated"
	defaultServiceScale = 1
)

// Unit is the normalized view of one compose file.
type Unit struct {
	Services map[string]Service
}

// Service captures the fields the orchestrator inspects.
type Service struct {
	Image    string
	Replicas int
}

// ParseUnit parses compose content into a Unit.
func ParseUnit(ctx context.Context, body []byte) (Unit, error) {
	if len(body) == 0 {
		return Unit{}, errors.New("compose body is empty")
	}

	details := types.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []types.ConfigFile{
			{
				Filename: "compose.yml",
				Content:  body,
			},
		},
		Environment: types.Mapping{},
	}

	project, err := loader.LoadWithContext(ctx, details, func(opts *loader.Options) {
		opts.SetProjectName("fleetctl", false)
		opts.SkipValidation = true
	})
	if err != nil {
		return Unit{}, fmt.Errorf("load compose: %w", err)
	}
	if len(project.Services) == 0 {
		return Unit{}, errors.New("compose has no services")
	}

	unit := Unit{
		Services: make(map[string]Service, len(project.Services)),
	}

	for name, service := range project.Services {
		replicas := defaultServiceScale
		if service.Deploy != nil && service.Deploy.Replicas != nil {
			replicas = *service.Deploy.Replicas
		} else if service.Scale != nil {
			replicas = *service.Scale
		}

		unit.Services[name] = Service{
			Image:    service.Image,
			Replicas: replicas,
		}
	}

	return unit, nil
}

// LoadUnit reads and parses the compose file at the given path.
func LoadUnit(ctx context.Context, path string) (Unit, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Unit{}, fmt.Errorf("read compose file: %w", err)
	}
	return ParseUnit(ctx, body)
}
