package backend_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/imgproc/backend"
	"github.com/gogpu/imgproc/backend/software"
	"github.com/gogpu/imgproc/gpucore"
)

func TestSoftwareRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendSoftware) {
		t.Fatal("software backend not registered on import")
	}
	if !slices.Contains(backend.Available(), backend.BackendSoftware) {
		t.Errorf("Available() = %v, missing %q", backend.Available(), backend.BackendSoftware)
	}
	d, err := backend.Open(backend.BackendSoftware)
	if err != nil {
		t.Fatalf("Open(software) error = %v", err)
	}
	defer d.Close()
	if d.Name() != backend.BackendSoftware {
		t.Errorf("Name() = %q, want %q", d.Name(), backend.BackendSoftware)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := backend.Open("nonexistent"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenDefaultSkipsFailingBackends(t *testing.T) {
	errBroken := errors.New("no adapter")
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		return nil, errBroken
	})
	defer backend.Unregister(backend.BackendNative)

	d, err := backend.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	defer d.Close()
	if d.Name() != backend.BackendSoftware {
		t.Errorf("OpenDefault() = %q, want fallback %q", d.Name(), backend.BackendSoftware)
	}
}

func TestOpenDefaultPriority(t *testing.T) {
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		return namedDevice{software.New(), backend.BackendNative}, nil
	})
	defer backend.Unregister(backend.BackendNative)

	d, err := backend.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if d.Name() != backend.BackendNative {
		t.Errorf("OpenDefault() = %q, want %q", d.Name(), backend.BackendNative)
	}
}

func TestOpenDefaultAllFail(t *testing.T) {
	backend.Unregister(backend.BackendSoftware)
	defer backend.Register(backend.BackendSoftware, func() (gpucore.Device, error) {
		return software.New(), nil
	})
	errBroken := errors.New("no adapter")
	backend.Register("broken", func() (gpucore.Device, error) { return nil, errBroken })
	defer backend.Unregister("broken")

	_, err := backend.OpenDefault()
	if !errors.Is(err, backend.ErrBackendNotAvailable) || !errors.Is(err, errBroken) {
		t.Errorf("OpenDefault() error = %v, want ErrBackendNotAvailable joined with cause", err)
	}
}

type namedDevice struct {
	*software.Device
	name string
}

func (n namedDevice) Name() string { return n.name }
