package tracing

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSanitizeEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"collector:4317", "collector:4317"},
		{"http://collector:4317", "collector:4317"},
		{"https://collector.example.com:4317/", "collector.example.com:4317"},
		{"collector:4317/", "collector:4317"},
	}
	for _, tt := range tests {
		if got := sanitizeEndpoint(tt.in); got != tt.want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInjectHeaders(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTextMapPropagator(defaultPropagator())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	if h.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}
	InjectHeaders(ctx, nil)
}

func TestWithEnvDefaults(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "yes")

	got := Config{SampleRatio: 3}.withEnvDefaults()
	if got.ServiceName != "coffeeshop" {
		t.Errorf("service name = %q", got.ServiceName)
	}
	if got.OTLPEndpoint != "otel:4317" {
		t.Errorf("endpoint = %q", got.OTLPEndpoint)
	}
	if !got.OTLPInsecure {
		t.Error("expected insecure from env")
	}
	if got.SampleRatio != 1 {
		t.Errorf("sample ratio = %v", got.SampleRatio)
	}

	explicit := Config{ServiceName: "bar", OTLPEndpoint: "collector:4317", SampleRatio: 0.25}.withEnvDefaults()
	if explicit.ServiceName != "bar" || explicit.OTLPEndpoint != "collector:4317" || explicit.SampleRatio != 0.25 {
		t.Errorf("explicit values overridden: %+v", explicit)
	}
}

func TestSetupEnabledInsecure(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{
		Enabled:      true,
		Environment:  "test",
		OTLPEndpoint: "127.0.0.1:4317",
		OTLPInsecure: true,
	}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true", v)
		}
	}
}
