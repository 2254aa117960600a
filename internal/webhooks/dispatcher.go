package webhooks

import (
	"context"
	"fmt"
	"log/slog"

	"printbridge/internal/types"
)

// Handler processes one CanonicalEvent. Handlers must be idempotent:
// providers redeliver, and concurrent deliveries of the same event are not
// serialized, so a handler called twice for the same subjectId+kind must not
// duplicate side effects. The check-then-act lives in the persisted state
// the handler writes to, not in the dispatcher.
type Handler interface {
	Handle(ctx context.Context, event types.CanonicalEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event types.CanonicalEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event types.CanonicalEvent) error {
	return f(ctx, event)
}

// Dispatcher routes a CanonicalEvent to the handler registered for its kind.
// Kinds without a handler (including KindUnrecognized) are acknowledged
// and ignored, never an error.
type Dispatcher struct {
	handlers map[types.EventKind]Handler
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[types.EventKind]Handler),
		logger:   logger,
	}
}

// Register binds a handler to one or more kinds. Registering a kind twice is
// a programming error caught at startup.
func (d *Dispatcher) Register(h Handler, kinds ...types.EventKind) {
	for _, kind := range kinds {
		if _, exists := d.handlers[kind]; exists {
			panic(fmt.Sprintf("dispatcher: duplicate handler for kind %q", kind))
		}
		d.handlers[kind] = h
	}
}

// Dispatch routes the event. A handler error is wrapped as a handler-failure
// AppError; the caller audits it and surfaces a structured rejection without
// crashing the router.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.CanonicalEvent) (types.HandlerResult, error) {
	h, ok := d.handlers[event.Kind]
	if !ok {
		d.logger.InfoContext(ctx, "no handler for event kind, acknowledging",
			"provider", string(event.Provider),
			"kind", string(event.Kind),
			"native_tag", event.NativeTag,
		)
		return types.HandlerResult{
			Kind:      event.Kind,
			SubjectID: event.SubjectID,
			Outcome:   types.OutcomeIgnored,
		}, nil
	}

	if err := h.Handle(ctx, event); err != nil {
		return types.HandlerResult{
				Kind:      event.Kind,
				SubjectID: event.SubjectID,
				Outcome:   types.OutcomeRejected,
			}, types.NewAppError(
				types.ErrCodeWebhookHandlerFailure,
				fmt.Sprintf("handler for %s failed", event.Kind),
				err,
			)
	}

	return types.HandlerResult{
		Kind:      event.Kind,
		SubjectID: event.SubjectID,
		Outcome:   types.OutcomeDispatched,
	}, nil
}
