package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"drivethru"
	"drivethru/order"
	"drivethru/tools"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionFailed is returned for every turn after a persistence failure.
var ErrSessionFailed = errors.New("session failed")

// Reply is what a session hands back to the dialogue layer for one turn.
type Reply struct {
	Content     string       `json:"content,omitempty"`
	Results     []ToolResult `json:"results,omitempty"`
	OrderStatus order.Status `json:"order_status"`
}

// ToolResult is the reply string of one dispatched tool call.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id,omitempty"`
	Name      string `json:"name"`
	Result    string `json:"result"`
}

// Session drives one conversation's tool calls. It is not safe for
// concurrent use; the dialogue layer issues one turn at a time.
type Session struct {
	id        string
	tools     drivethru.ToolProvider
	order     drivethru.OrderState
	logger    drivethru.CoordinationLogger
	notifiers []drivethru.OrderNotifier
	tracer    trace.Tracer
	metrics   sessionMetrics

	turn     int
	notified bool
	err      error
}

type sessionMetrics struct {
	turns           metric.Int64Counter
	toolCalls       metric.Int64Counter
	toolCallsFailed metric.Int64Counter
	ordersCompleted metric.Int64Counter
	toolDuration    metric.Float64Histogram
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l drivethru.CoordinationLogger) Option {
	return func(s *Session) { s.logger = l }
}

func WithNotifiers(n ...drivethru.OrderNotifier) Option {
	return func(s *Session) { s.notifiers = append(s.notifiers, n...) }
}

func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(s *Session) {
		s.tracer = tracer
		s.metrics = newSessionMetrics(meter)
	}
}

// NewSession binds a tool provider and the order it mutates to one session id.
func NewSession(id string, tp drivethru.ToolProvider, state drivethru.OrderState, opts ...Option) *Session {
	tracer, meter := drivethru.SessionTelemetry()
	s := &Session{
		id:      id,
		tools:   tp,
		order:   state,
		logger:  drivethru.NewNoOpCoordinationLogger(),
		tracer:  tracer,
		metrics: newSessionMetrics(meter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newSessionMetrics(meter metric.Meter) sessionMetrics {
	var m sessionMetrics
	m.turns, _ = meter.Int64Counter("turns_total",
		metric.WithDescription("Total number of dialogue turns handled"))
	m.toolCalls, _ = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	m.toolCallsFailed, _ = meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	m.ordersCompleted, _ = meter.Int64Counter("orders_completed_total",
		metric.WithDescription("Total number of orders completed"))
	m.toolDuration, _ = meter.Float64Histogram("tool_call_duration_seconds",
		metric.WithDescription("Time taken to execute individual tool calls in seconds"))
	return m
}

func (s *Session) ID() string { return s.id }

// Err returns the failure that stopped the session, if any.
func (s *Session) Err() error { return s.err }

// Handle dispatches every tool call embedded in modelOutput, in the order
// they appear. A persistence failure stops the turn and the session.
func (s *Session) Handle(ctx context.Context, modelOutput string) (Reply, error) {
	ctx, span := s.tracer.Start(ctx, "Session.Handle", trace.WithAttributes(
		attribute.String("session.id", s.id),
	))
	defer span.End()

	if s.err != nil {
		span.SetStatus(codes.Error, "session already failed")
		return Reply{OrderStatus: s.order.Status()}, fmt.Errorf("%w: %w", ErrSessionFailed, s.err)
	}

	s.turn++
	s.metrics.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("session.id", s.id)))

	res := ParseModelOutput(modelOutput)
	span.SetAttributes(
		attribute.Int("turn", s.turn),
		attribute.Int("tool_calls", len(res.ToolCalls)),
		attribute.Int("unreadable_tool_calls", len(res.Unreadable)),
	)

	turnLog := drivethru.TurnLog{
		Turn:        s.turn,
		SessionID:   s.id,
		Timestamp:   time.Now(),
		ModelOutput: modelOutput,
		Content:     res.Content,
	}
	reply := Reply{Content: res.Content}

	slog.Info("SESSION: handling turn", "session_id", s.id, "turn", s.turn, "tool_calls", len(res.ToolCalls))

	for _, call := range res.ToolCalls {
		toolLog := drivethru.ToolCallLog{Name: call.Name, Input: call.Input}

		output, err := s.dispatch(ctx, call)
		if err != nil {
			s.err = err
			toolLog.Error = err.Error()
			turnLog.ToolCalls = append(turnLog.ToolCalls, toolLog)
			turnLog.Error = err.Error()
			turnLog.OrderStatus = string(s.order.Status())
			s.logTurn(turnLog)

			span.SetStatus(codes.Error, "tool call failed")
			span.RecordError(err)
			slog.Error("SESSION: stopping after tool failure", "session_id", s.id, "tool", call.Name, "error", err)

			reply.OrderStatus = s.order.Status()
			return reply, fmt.Errorf("tool %q: %w", call.Name, err)
		}

		toolLog.Output = output
		turnLog.ToolCalls = append(turnLog.ToolCalls, toolLog)
		reply.Results = append(reply.Results, ToolResult{
			ToolUseID: call.ToolUseID,
			Name:      call.Name,
			Result:    tools.Result(output),
		})

		s.NotifyCompleted(ctx)
	}

	for _, call := range res.Unreadable {
		s.metrics.toolCallsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("tool.name", call.Name)))
		msg := unreadableMessage(call.Name)
		turnLog.ToolCalls = append(turnLog.ToolCalls, drivethru.ToolCallLog{Name: call.Name, Error: msg})
		reply.Results = append(reply.Results, ToolResult{
			ToolUseID: call.ToolUseID,
			Name:      call.Name,
			Result:    msg,
		})
	}

	turnLog.OrderStatus = string(s.order.Status())
	s.logTurn(turnLog)

	reply.OrderStatus = s.order.Status()
	return reply, nil
}

func (s *Session) dispatch(ctx context.Context, call tools.Call) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "Session.ToolCall", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
	))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("tool.name", call.Name))
	s.metrics.toolCalls.Add(ctx, 1, attrs)

	slog.Info("SESSION: dispatching tool call", "session_id", s.id, "turn", s.turn, "tool", call.Name)

	tool, err := s.tools.GetTool(call.Name)
	if err != nil {
		slog.Warn("SESSION: unknown tool requested", "session_id", s.id, "tool", call.Name)
		span.SetAttributes(attribute.String("tool.outcome", "unknown_tool"))
		return map[string]any{tools.ResultKey: s.unknownToolMessage(call.Name)}, nil
	}

	start := time.Now()
	output, err := tool.Run(ctx, call.Input)
	s.metrics.toolDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		s.metrics.toolCallsFailed.Add(ctx, 1, attrs)
		span.SetAttributes(attribute.String("tool.outcome", "error"))
		span.SetStatus(codes.Error, "tool failed")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("tool.outcome", "ok"))
	return output, nil
}

func (s *Session) unknownToolMessage(name string) string {
	available := s.tools.GetTools()
	names := make([]string, 0, len(available))
	for _, t := range available {
		names = append(names, t.Name())
	}
	return fmt.Sprintf("Sorry, I can't do '%s'. Available actions: %s.", name, strings.Join(names, ", "))
}

func unreadableMessage(name string) string {
	if name == "" {
		return "Sorry, I couldn't read that request. Please try again."
	}
	return fmt.Sprintf("Sorry, I couldn't read the '%s' request. Please try again.", name)
}

// NotifyCompleted fires the completion notifiers once per session, and only
// for a completed order. Handle calls it after every tool call; a caller that
// recovers a failed session's final snapshot calls it directly. Notifier
// failures are logged and otherwise ignored.
func (s *Session) NotifyCompleted(ctx context.Context) {
	if s.notified || s.order.Status() != order.StatusCompleted {
		return
	}
	s.notified = true
	s.metrics.ordersCompleted.Add(ctx, 1)

	snap := s.order.Snapshot()
	for _, n := range s.notifiers {
		if err := n.NotifyCompleted(ctx, snap); err != nil {
			slog.Warn("SESSION: completion notification failed", "session_id", s.id, "error", err)
		}
	}
}

// logTurn logs a turn using the configured logger, handling errors gracefully
func (s *Session) logTurn(turn drivethru.TurnLog) {
	if s.logger == nil {
		return
	}
	if err := s.logger.LogTurn(turn); err != nil {
		slog.Error("SESSION: failed to log turn", "session_id", s.id, "turn", turn.Turn, "error", err)
	}
}
