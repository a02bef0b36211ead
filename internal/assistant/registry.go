package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/llm"
)

// ErrInvalidRegistry is returned when the advertised tool definitions and the
// handlers do not line up.
var ErrInvalidRegistry = errors.New("invalid tool registry")

var validate = newValidator()

// newValidator reports fields by their JSON names so error messages match the
// tool schemas.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandlerFunc executes one tool with its raw JSON arguments. The returned value
// is serialized as the tool result.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps advertised tool definitions to their handlers.
type Registry struct {
	defs     []llm.ToolDefinition
	handlers map[string]HandlerFunc
}

// NewRegistry checks that every definition has a handler, every handler is
// advertised, names are unique and every parameter schema is a JSON object.
func NewRegistry(defs []llm.ToolDefinition, handlers map[string]HandlerFunc) (*Registry, error) {
	var problems []string
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		name := d.Function.Name
		if name == "" {
			problems = append(problems, "definition without a name")
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("duplicate tool %q", name))
		}
		seen[name] = true
		if handlers[name] == nil {
			problems = append(problems, fmt.Sprintf("tool %q has no handler", name))
		}
		var schema map[string]any
		if err := json.Unmarshal(d.Function.Parameters, &schema); err != nil || schema["type"] != "object" {
			problems = append(problems, fmt.Sprintf("tool %q has an invalid parameter schema", name))
		}
	}
	for name := range handlers {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("handler %q is not advertised", name))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegistry, strings.Join(problems, "; "))
	}

	return &Registry{defs: defs, handlers: handlers}, nil
}

// Definitions returns the tool catalog in the order it was registered.
func (r *Registry) Definitions() []llm.ToolDefinition {
	return r.defs
}

// Call runs the named tool. It always returns a JSON document: the handler's
// result, or an {"error": ...} object when the tool is unknown or fails.
func (r *Registry) Call(ctx context.Context, name, args string) json.RawMessage {
	h, ok := r.handlers[name]
	if !ok {
		toolInvocations.WithLabelValues("unknown", "not_found").Inc()
		return errorResult(fmt.Sprintf("Function %s not found", name))
	}

	start := time.Now()
	result, err := invoke(ctx, h, json.RawMessage(args))
	toolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		toolInvocations.WithLabelValues(name, "error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return errorResult(err.Error())
	}

	out, err := json.Marshal(result)
	if err != nil {
		toolInvocations.WithLabelValues(name, "error").Inc()
		return errorResult(fmt.Sprintf("encode result: %s", err))
	}
	toolInvocations.WithLabelValues(name, "ok").Inc()
	return out
}

func invoke(ctx context.Context, h HandlerFunc, args json.RawMessage) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("internal error: %v", p)
		}
	}()
	return h(ctx, args)
}

func errorResult(msg string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}

// typed decodes and validates the arguments into A before calling fn. Missing
// or empty arguments decode as the zero A.
func typed[A any](fn func(context.Context, A) (any, error)) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		if err := validate.Struct(args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %s", describeValidation(err))
		}
		return fn(ctx, args)
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
