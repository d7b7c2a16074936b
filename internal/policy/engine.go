// Package policy decides which content markers the widget expands, based on
// the enabled features.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/markup"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Features is the policy input.
type Features struct {
	BookingEnabled bool `json:"booking_enabled"`
	SupportEnabled bool `json:"support_enabled"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.marker_policy.gates"),
		rego.Module("marker_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// LoadPolicy returns the policy at path, or DefaultPolicy when path is empty.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy: %w", err)
	}
	return string(data), nil
}

// Gates evaluates the policy into a marker gate table.
func (e *Engine) Gates(ctx context.Context, features Features) (markup.Gates, error) {
	input := map[string]interface{}{
		"booking_enabled": features.BookingEnabled,
		"support_enabled": features.SupportEnabled,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	gates := markup.Gates{}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// Undefined result: expand nothing.
		return gates, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}
	for name, v := range obj {
		enabled, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("marker %q: expected bool, got %T", name, v)
		}
		gates[markup.Marker(name)] = enabled
	}
	return gates, nil
}

// NewParser builds the content parser for the features enabled in cfg.
func NewParser(ctx context.Context, engine *Engine, cfg *config.Config) (*markup.Parser, error) {
	gates, err := engine.Gates(ctx, Features{
		BookingEnabled: cfg.BookingEnabled,
		SupportEnabled: cfg.SupportEnabled,
	})
	if err != nil {
		return nil, err
	}
	return markup.NewParser(gates, cfg.ItalicEnabled), nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package marker_policy

import rego.v1

default contact_form := false

contact_form if input.support_enabled == true

default booking := false

booking if input.booking_enabled == true

gates := {
	"contact_form": contact_form,
	"booking": booking,
	"newsletter": true,
	"product_cards": true,
}
`
