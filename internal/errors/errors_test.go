package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter captures reported errors for assertions
type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderContextAndCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("request failed: %d", 503).
		Category(CategoryNetwork).
		Component("alerce").
		Context("status_code", 503).
		Priority("bogus").
		Build()

	assert.Equal(t, "alerce", ee.GetComponent())
	assert.Equal(t, CategoryNetwork, ee.Category)
	assert.Equal(t, PriorityMedium, ee.GetPriority())
	assert.Equal(t, 503, ee.GetContext()["status_code"])

	wrapped := fmt.Errorf("outer: %w", ee)
	assert.True(t, IsCategory(wrapped, CategoryNetwork))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, CategoryNetwork, CategoryOf(wrapped))
	assert.Equal(t, CategoryGeneric, CategoryOf(fmt.Errorf("plain")))
}

func TestTimingAndNetworkContext(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("dial tcp: connection refused").
		Category(CategoryNetwork).
		Timing("objects", 1500*time.Millisecond).
		NetworkContext("https://api.alerce.online/objects?ra=10", 30*time.Second).
		Build()

	ctx := ee.GetContext()
	assert.Equal(t, "objects", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])
	assert.Equal(t, "https-endpoint", ctx["url_category"])
	assert.InDelta(t, 30.0, ctx["timeout_seconds"], 0)
}

func TestReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := Newf("connection refused").Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.Equal(t, CategoryNetwork, ee.Category)
	assert.True(t, ee.IsReported())
}

func TestBasicURLScrub(t *testing.T) {
	scrubbed := basicURLScrub("Error at https://api.alerce.online/objects?ra=10&dec=20")
	assert.Equal(t, "Error at https://api.alerce.online/objects?[REDACTED]", scrubbed)

	scrubbed = basicURLScrub("mysql login failed password=hunter2")
	assert.NotContains(t, scrubbed, "hunter2")

	scrubbed = basicURLScrub("Config error: api_key=secret123 is invalid")
	assert.Contains(t, scrubbed, "[API_KEY_REDACTED]")
}
