package upload

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bitrise-io/go-mediaupload/upload"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

type instruments struct {
	transferredBytes metric.Int64Counter
	statusChecks     metric.Int64Counter
	uploads          metric.Int64Counter
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)
	return instruments{
		transferredBytes: counter(meter, "mediaupload.transferred_bytes", "By", "Payload bytes accepted by the upload service."),
		statusChecks:     counter(meter, "mediaupload.status_checks", "{check}", "Processing status checks issued."),
		uploads:          counter(meter, "mediaupload.uploads", "{upload}", "Finished uploads by outcome."),
	}
}

func counter(meter metric.Meter, name, unit, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithUnit(unit), metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return c
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
