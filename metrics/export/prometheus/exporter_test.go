package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	authcore "github.com/dverkh/authcore"
	"github.com/dverkh/authcore/directory"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (s *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return s.snapshot }
func (s *fakeSource) AuditDropped() uint64                      { return s.dropped }

func TestCollectorExportsSnapshot(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricLoginSuccess:   3,
				authcore.MetricReplayDetected: 1,
			},
		},
		dropped: 2,
	}
	collector := NewCollectorFromSource(source)

	expected := `
# HELP authcore_login_success_total Successful login attempts.
# TYPE authcore_login_success_total counter
authcore_login_success_total 3
# HELP authcore_replay_detected_total Refresh tokens presented after they were already redeemed.
# TYPE authcore_replay_detected_total counter
authcore_replay_detected_total 1
# HELP authcore_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE authcore_audit_dropped_total counter
authcore_audit_dropped_total 2
`
	err := testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
		"authcore_login_success_total",
		"authcore_replay_detected_total",
		"authcore_audit_dropped_total",
	)
	if err != nil {
		t.Fatalf("CollectAndCompare failed: %v", err)
	}
}

func TestCollectorReadsFreshSnapshots(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{authcore.MetricLogout: 1},
		},
	}
	collector := NewCollectorFromSource(source)

	expected := `
# HELP authcore_logout_total Logout operations.
# TYPE authcore_logout_total counter
authcore_logout_total 1
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "authcore_logout_total"); err != nil {
		t.Fatalf("first scrape: %v", err)
	}

	source.snapshot.Counters[authcore.MetricLogout] = 7

	expected = `
# HELP authcore_logout_total Logout operations.
# TYPE authcore_logout_total counter
authcore_logout_total 7
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "authcore_logout_total"); err != nil {
		t.Fatalf("second scrape: %v", err)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dir, err := directory.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}

	cfg := authcore.DefaultConfig()
	cfg.Tokens.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Tokens.AccessTokenTTL = time.Minute
	cfg.Audit.Enabled = false

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	handler, err := Handler(engine)
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	if recorder.Code != 200 {
		t.Fatalf("status = %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, name := range []string{
		"authcore_login_success_total",
		"authcore_refresh_failure_total",
		"authcore_audit_dropped_total",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("scrape body missing %s", name)
		}
	}
}
