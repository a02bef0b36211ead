package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/saaslens/internal/llm"
)

var (
	ErrPlanning  = errors.New("planning request failed")
	ErrSynthesis = errors.New("synthesis request failed")
	ErrTimeout   = errors.New("assistant request timed out")
)

// FallbackReply is returned when the model produces no text.
const FallbackReply = "I couldn't analyze the data at this time. Please try again."

const (
	planningTemperature  = 0.2
	synthesisTemperature = 0.7
	synthesisMaxTokens   = 1000
	defaultToolLimit     = 4
)

// ChatClient is the language model used for planning and synthesis.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.Message, error)
}

const (
	EventPlanning     = "planning"
	EventToolStarted  = "tool_started"
	EventToolFinished = "tool_finished"
	EventSynthesizing = "synthesizing"
	EventDone         = "done"
)

// Event reports orchestration progress. Events are informational only.
type Event struct {
	Type   string `json:"type"`
	Tool   string `json:"tool,omitempty"`
	CallID string `json:"callId,omitempty"`
}

// Orchestrator answers questions by letting the model pick tools, running
// them, and having the model summarize the results.
type Orchestrator struct {
	client    ChatClient
	registry  *Registry
	prompts   Prompts
	timeout   time.Duration
	toolLimit int
}

func NewOrchestrator(client ChatClient, registry *Registry, prompts Prompts, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		client:    client,
		registry:  registry,
		prompts:   prompts,
		timeout:   timeout,
		toolLimit: defaultToolLimit,
	}
}

// Ask answers one question. Progress events are sent to progress without
// blocking and are dropped when nobody is receiving. progress may be nil and
// is never closed by Ask.
func (o *Orchestrator) Ask(ctx context.Context, question string, progress chan<- Event) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	logger := zerolog.Ctx(ctx)

	emit(progress, Event{Type: EventPlanning})
	user := llm.Message{Role: llm.RoleUser, Content: question}
	plan, err := o.chat(ctx, "planning", llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: o.prompts.Planning},
			user,
		},
		Tools:       o.registry.Definitions(),
		ToolChoice:  "auto",
		Temperature: llm.Temperature(planningTemperature),
	})
	if err != nil {
		return "", classify(ctx, ErrPlanning, err)
	}

	if len(plan.ToolCalls) == 0 {
		emit(progress, Event{Type: EventDone})
		return replyOrFallback(plan.Content), nil
	}

	logger.Debug().Int("tool_calls", len(plan.ToolCalls)).Msg("running planned tool calls")
	results := o.runTools(ctx, plan.ToolCalls, progress)

	emit(progress, Event{Type: EventSynthesizing})
	messages := make([]llm.Message, 0, 3+len(results))
	messages = append(messages,
		llm.Message{Role: llm.RoleSystem, Content: o.prompts.Synthesis},
		user,
		*plan,
	)
	messages = append(messages, results...)

	answer, err := o.chat(ctx, "synthesis", llm.ChatRequest{
		Messages:    messages,
		Temperature: llm.Temperature(synthesisTemperature),
		MaxTokens:   synthesisMaxTokens,
	})
	if err != nil {
		return "", classify(ctx, ErrSynthesis, err)
	}

	emit(progress, Event{Type: EventDone})
	return replyOrFallback(answer.Content), nil
}

// runTools executes every call concurrently. The result for call i is stored
// at index i so the tool messages follow the order the model asked for them.
func (o *Orchestrator) runTools(ctx context.Context, calls []llm.ToolCall, progress chan<- Event) []llm.Message {
	results := make([]llm.Message, len(calls))
	var g errgroup.Group
	g.SetLimit(o.toolLimit)
	for i, call := range calls {
		g.Go(func() error {
			emit(progress, Event{Type: EventToolStarted, Tool: call.Function.Name, CallID: call.ID})
			content := o.registry.Call(ctx, call.Function.Name, call.Function.Arguments)
			results[i] = llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    string(content),
			}
			emit(progress, Event{Type: EventToolFinished, Tool: call.Function.Name, CallID: call.ID})
			return nil
		})
	}
	// Tool failures are encoded in the result content, so Wait never errors.
	g.Wait()
	return results
}

func (o *Orchestrator) chat(ctx context.Context, phase string, req llm.ChatRequest) (*llm.Message, error) {
	start := time.Now()
	msg, err := o.client.Chat(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmDuration.WithLabelValues(phase, outcome).Observe(time.Since(start).Seconds())
	return msg, err
}

// classify wraps a model failure in its phase sentinel, or in ErrTimeout when
// the request deadline expired.
func classify(ctx context.Context, phase, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", phase, err)
}

func replyOrFallback(content string) string {
	if content == "" {
		return FallbackReply
	}
	return content
}

func emit(progress chan<- Event, e Event) {
	select {
	case progress <- e:
	default:
	}
}
