// Package localrt starts and stops the local DynamoDB container.
package localrt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/acksell/carpenter/dynamodb/ddblog"
)

const (
	// DefaultName is the container name used when none is given.
	DefaultName = "dynamoCarpenter"
	// ImageLocal is the plain DynamoDB Local image.
	ImageLocal = "amazon/dynamodb-local"
	// ImageAdmin bundles DynamoDB Local with a web admin GUI.
	ImageAdmin = "instructure/dynamo-local-admin"
	// containerPort is the port DynamoDB Local listens on inside both images.
	containerPort = 8000
)

// Service describes one local DynamoDB instance.
type Service struct {
	Name  string
	Port  int
	Image string
}

// NewService returns the service published on port, with the admin GUI image if gui is set.
func NewService(port int, gui bool) Service {
	svc := Service{Name: DefaultName, Port: port, Image: ImageLocal}
	if gui {
		svc.Image = ImageAdmin
	}
	return svc
}

type Runtime interface {
	Start(ctx context.Context, svc Service) error
	Stop(ctx context.Context, name string) error
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Docker runs the service with the docker CLI.
type Docker struct {
	binary string
	run    Runner
	logger ddblog.Logger
}

var _ Runtime = &Docker{}

type DockerOption func(*Docker)

// WithRunner replaces command execution, mostly for tests.
func WithRunner(r Runner) DockerOption {
	return func(d *Docker) {
		d.run = r
	}
}

// WithBinary sets the docker compatible CLI to use, e.g. podman.
func WithBinary(path string) DockerOption {
	return func(d *Docker) {
		d.binary = path
	}
}

func WithLogger(l ddblog.Logger) DockerOption {
	return func(d *Docker) {
		d.logger = l
	}
}

func NewDocker(opts ...DockerOption) *Docker {
	d := &Docker{
		binary: "docker",
		run:    execRunner,
		logger: ddblog.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches a detached container that is removed when stopped.
func (d *Docker) Start(ctx context.Context, svc Service) error {
	if err := svc.validate(); err != nil {
		return err
	}
	args := []string{
		"run",
		"-p", fmt.Sprintf("%d:%d", svc.Port, containerPort),
		"-d", "--rm",
		"--name", svc.Name,
		svc.Image,
	}
	out, err := d.exec(ctx, args...)
	if err != nil {
		return fmt.Errorf("start %s: %w", svc.Name, err)
	}
	d.logger.Info("started local dynamodb", "name", svc.Name, "port", svc.Port, "image", svc.Image, "container", out)
	return nil
}

func (d *Docker) Stop(ctx context.Context, name string) error {
	if name == "" {
		name = DefaultName
	}
	if _, err := d.exec(ctx, "stop", name); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	d.logger.Info("stopped local dynamodb", "name", name)
	return nil
}

func (d *Docker) exec(ctx context.Context, args ...string) (string, error) {
	d.logger.Debug("exec", "cmd", d.binary+" "+strings.Join(args, " "))
	out, err := d.run(ctx, d.binary, args...)
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed != "" {
			return "", fmt.Errorf("%s %s: %w: %s", d.binary, args[0], err, trimmed)
		}
		return "", fmt.Errorf("%s %s: %w", d.binary, args[0], err)
	}
	return trimmed, nil
}

func (s Service) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("service name is required")
	case s.Image == "":
		return fmt.Errorf("service image is required")
	case s.Port < 1 || s.Port > 65535:
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}
