/*
Package tracing ties HTTP requests to the terminal commands they run.

Each request gets a span; the trace ID arrives in X-Trace-ID or is minted
from a ULID. Commands executed on behalf of the request open child spans, so
a slow launch or failed trust decision can be found in the logs by trace ID.
Finished spans are logged by a background collector: debug for success, warn
for errors.

# Usage

	tracer := tracing.New(logger.Component("trace"))
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "terminal.create")
	defer tracer.Finish(span)
	span.SetTag("workspace_id", workspaceID)

A nil *Tracer is valid and records nothing.
*/
package tracing
