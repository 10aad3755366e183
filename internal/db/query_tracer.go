package db

import (
	"context"
	"errors"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5"
)

type querySpanContextKey struct{}

// queryTracer opens a sentry span per statement when the caller is already
// inside a traced operation.
type queryTracer struct{}

func newQueryTracer() *queryTracer {
	return &queryTracer{}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if sentry.SpanFromContext(ctx) == nil {
		return ctx
	}

	statement := compactStatement(data.SQL)
	span := sentry.StartSpan(
		ctx,
		"db.document",
		sentry.WithDescription(statement),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	span.SetData("db.system", "postgresql")
	if verb := statementVerb(statement); verb != "" {
		span.SetData("db.operation", verb)
	}
	// Document statements always bind the collection name first.
	if len(data.Args) > 0 {
		if collection, ok := data.Args[0].(string); ok {
			span.SetData("db.collection", collection)
		}
	}

	return context.WithValue(span.Context(), querySpanContextKey{}, span)
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, _ := ctx.Value(querySpanContextKey{}).(*sentry.Span)
	if span == nil {
		return
	}

	switch {
	case data.Err == nil:
		span.Status = sentry.SpanStatusOK
	case errors.Is(data.Err, pgx.ErrNoRows):
		span.Status = sentry.SpanStatusNotFound
	default:
		span.Status = sentry.SpanStatusInternalError
		span.SetData("db.error", data.Err.Error())
	}
	span.SetData("db.rows_affected", data.CommandTag.RowsAffected())
	span.Finish()
}

func compactStatement(statement string) string {
	compact := strings.Join(strings.Fields(statement), " ")
	if compact == "" {
		return "sql.query"
	}
	const maxLen = 512
	if len(compact) > maxLen {
		return compact[:maxLen]
	}
	return compact
}

func statementVerb(statement string) string {
	verb, _, _ := strings.Cut(statement, " ")
	return strings.ToUpper(verb)
}
