package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockEngine struct {
	err error
}

func (m *mockEngine) SelfCheck(_ context.Context) error { return m.err }

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockTicketSource struct {
	err   error
	block bool
}

func (m *mockTicketSource) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockEngine{}, &mockDBPinger{}, &mockTicketSource{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentEngine, ComponentCache, ComponentGLPI} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_OptionalComponentsSkipped(t *testing.T) {
	svc := New(&mockEngine{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the engine check, got %v", r.Checks)
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockEngine{}, &mockDBPinger{err: errors.New("conn refused")}, &mockTicketSource{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentCache])
	}
	if r.Checks[ComponentGLPI] != CheckOK {
		t.Errorf("expected glpi %q, got %q", CheckOK, r.Checks[ComponentGLPI])
	}
}

func TestCheck_GLPITimeout(t *testing.T) {
	svc := New(&mockEngine{}, nil, &mockTicketSource{block: true}, nil).WithTimeout(20 * time.Millisecond)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentGLPI] != CheckError {
		t.Errorf("expected glpi %q, got %q", CheckError, r.Checks[ComponentGLPI])
	}
}

func TestCheck_EngineErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockEngine{err: errors.New("self-check failed")}, &mockDBPinger{err: errors.New("down")}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
