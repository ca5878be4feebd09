package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "0.5": 0.5, "7": 1, "-1": 0, "abc": 0.1}
	for in, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", in)
		assert.Equal(t, want, sampleRatio(), in)
	}
}

func TestHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, broken ,x-team=core,empty=")
	assert.Equal(t, map[string]string{"authorization": "Bearer x", "x-team": "core"}, headers())
}

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Otel.Enabled = false
	shutdown := InitTracing(context.Background(), logger.Nop(), cfg)
	assert.NoError(t, shutdown(context.Background()))
}
