//go:build !no_otel

package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the globally registered tracer under the given name.
// Builds with the no_otel tag get a no-op replacement instead, dropping the
// otel dependency from the binary.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
