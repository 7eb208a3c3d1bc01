package toolserver

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/walterra/eddo-core/internal/authgate"
)

var tracer = otel.Tracer("eddo/toolserver")

// authError is the error reported for any catalog invocation under the
// anonymous session, per §4.G.
type authError struct{ reason string }

func (e *authError) Error() string { return e.reason }

// Dispatch resolves tool by name, rejects anonymous sessions outright, and
// runs the handler inside a span parented to sess.Ctx, returning the
// envelope that the transport serializes.
func (d *Deps) Dispatch(sess authgate.Session, tool string, args map[string]interface{}) interface{} {
	started := time.Now()

	if sess.IsAnonymous() {
		err := &authError{reason: "anonymous session cannot invoke " + tool}
		return newError(tool, ErrorTypeAuth, err, "authenticate with a valid X-User-ID before retrying")
	}

	handler, ok := Catalog[tool]
	if !ok {
		err := &ValidationError{Reason: "unknown tool: " + tool}
		return newError(tool, ErrorTypeValidation, err, "check the tool catalog for available names")
	}

	spanCtx, span := tracer.Start(sess.Ctx, "mcp.tool/"+tool)
	span.SetAttributes(
		attribute.String("mcp.tool", tool),
		attribute.String("user.id", sess.UserID),
		attribute.String("user.name", sess.Username),
	)
	defer span.End()

	data, err := handler(spanCtx, d, sess, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		errType := classify(err)
		return newError(tool, errType, err, suggestionsFor(errType)...)
	}
	span.SetStatus(codes.Ok, "")
	return newSuccess(tool, data, started)
}
