package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{"nil context", nil, UnknownValue, UnknownValue},
		{"empty fields", &Context{}, UnknownValue, UnknownValue},
		{"populated", New("v1.2.0", "2026-10-01T12:00:00Z"), "v1.2.0", "2026-10-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
			assert.Equal(t, runtime.Version(), tt.ctx.GetGoVersion())
		})
	}
}

func TestContextString(t *testing.T) {
	t.Parallel()

	got := New("v1.2.0", "2026-10-01").String()
	assert.Equal(t, "v1.2.0 (built 2026-10-01, "+runtime.Version()+")", got)

	var missing *Context
	assert.Contains(t, missing.String(), UnknownValue)
}
