package expr

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// baseFunctions is the sandboxed function table exposed to every
// expression. It is a fixed subset of the cty stdlib: pure value functions
// only, no filesystem or network reach.
var baseFunctions = map[string]function.Function{
	"abs":        stdlib.AbsoluteFunc,
	"ceil":       stdlib.CeilFunc,
	"floor":      stdlib.FloorFunc,
	"max":        stdlib.MaxFunc,
	"min":        stdlib.MinFunc,
	"format":     stdlib.FormatFunc,
	"join":       stdlib.JoinFunc,
	"split":      stdlib.SplitFunc,
	"length":     stdlib.LengthFunc,
	"strlen":     stdlib.StrlenFunc,
	"substr":     stdlib.SubstrFunc,
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"trim":       stdlib.TrimSpaceFunc,
	"contains":   stdlib.ContainsFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"concat":     stdlib.ConcatFunc,
	"keys":       stdlib.KeysFunc,
	"values":     stdlib.ValuesFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"jsondecode": stdlib.JSONDecodeFunc,
}

// buildEvalContext assembles the hcl.EvalContext for one evaluation pass:
// a `form` object carrying the three data snapshots, the extra bindings at
// top level, and the sandboxed function table.
func buildEvalContext(set ScopeSet, extraFuncs map[string]function.Function) *hcl.EvalContext {
	variables := map[string]cty.Value{
		"form": cty.ObjectVal(map[string]cty.Value{
			"data":       snapshot(set.Data),
			"parentData": snapshot(set.Parent),
			"rootData":   snapshot(set.Root),
		}),
	}
	for k, v := range set.Extra {
		if v == cty.NilVal {
			v = cty.NullVal(cty.DynamicPseudoType)
		}
		variables[k] = v
	}
	functions := make(map[string]function.Function, len(baseFunctions)+len(extraFuncs))
	for k, fn := range baseFunctions {
		functions[k] = fn
	}
	for k, fn := range extraFuncs {
		functions[k] = fn
	}
	return &hcl.EvalContext{Variables: variables, Functions: functions}
}

// Evaluate runs a compiled expression against the scope set and returns its
// value. Evaluation failures are logged with the offending source and
// returned; by contract the caller treats them as "no value".
func Evaluate(ctx context.Context, c *Compiled, set ScopeSet) (cty.Value, error) {
	val, diags := c.Expr.Value(buildEvalContext(set, nil))
	if diags.HasErrors() {
		ctxlog.FromContext(ctx).Warn("Expression evaluation failed.",
			"source", c.Source, "error", diags.Error())
		return cty.NilVal, fmt.Errorf("failed to evaluate expression %q: %w", c.Source, diags)
	}
	return val, nil
}

// EvaluateBool evaluates an expression expected to produce a boolean, such
// as a slot condition or a validateWhen guard. Null results are false.
func EvaluateBool(ctx context.Context, c *Compiled, set ScopeSet) (bool, error) {
	val, err := Evaluate(ctx, c, set)
	if err != nil {
		return false, err
	}
	if val == cty.NilVal || val.IsNull() || !val.IsKnown() {
		return false, nil
	}
	if val.Type() != cty.Bool {
		return false, fmt.Errorf("expression %q produced %s, expected bool", c.Source, val.Type().FriendlyName())
	}
	return val.True(), nil
}

// ExecuteAction evaluates an action body. Action bodies are expressions
// whose value is discarded; their effect happens through the `set` function
// writing into the data scope. A failing action is a no-op.
func ExecuteAction(ctx context.Context, c *Compiled, set ScopeSet) error {
	logger := ctxlog.FromContext(ctx)
	setFn := function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "key", Type: cty.String},
			{Name: "value", Type: cty.DynamicPseudoType, AllowNull: true, AllowDynamicType: true},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if set.Data == nil {
				return cty.False, fmt.Errorf("action has no data scope to write to")
			}
			if err := set.Data.Set(args[0].AsString(), args[1]); err != nil {
				return cty.False, err
			}
			return cty.True, nil
		},
	})

	_, diags := c.Expr.Value(buildEvalContext(set, map[string]function.Function{"set": setFn}))
	if diags.HasErrors() {
		logger.Warn("Action execution failed; treating as no-op.",
			"source", c.Source, "error", diags.Error())
		return fmt.Errorf("failed to execute action %q: %w", c.Source, diags)
	}
	return nil
}
