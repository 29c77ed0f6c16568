package validation

import (
	"context"
	"fmt"

	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Result is one failed rule: the settings that configured it and the
// message to display, still unlocalized.
type Result struct {
	Settings formstore.RuleSettings
	Message  string
}

// Runner evaluates a component's validation schema against a value.
type Runner struct {
	rules  *Registry
	engine *expr.Engine
}

// NewRunner creates a runner over the given rule registry and expression
// engine. The engine compiles validateWhen guards and code rules.
func NewRunner(rules *Registry, engine *expr.Engine) *Runner {
	return &Runner{rules: rules, engine: engine}
}

// Registry exposes the rule registry, for custom rule registration.
func (r *Runner) Registry() *Registry { return r.rules }

// Validate runs the schema's rules against the value and returns the failed
// results. Rule order is fixed: required first, then the declared order,
// the free-form code rule last. A failing required rule short-circuits the
// remaining rules since they all presuppose a present value; an absent
// value with no required rule passes everything.
func (r *Runner) Validate(ctx context.Context, st schema.Type, value cty.Value, vschema *formstore.ValidationSchema, scopes expr.ScopeSet) ([]Result, error) {
	if vschema == nil || len(vschema.Rules) == 0 {
		return nil, nil
	}

	ordered := orderRules(vschema.Rules)
	var failed []Result
	for _, settings := range ordered {
		if settings.Key != RuleKeyRequired && isEmpty(value) {
			continue
		}
		if skip, err := r.guardSkips(ctx, settings, scopes); err != nil || skip {
			continue
		}

		var pass bool
		if settings.Key == RuleKeyCode {
			pass = r.runCodeRule(ctx, settings, value, scopes)
		} else {
			rule, ok := r.rules.Resolve(st, settings.Key, settings.Custom)
			if !ok {
				ctxlog.FromContext(ctx).Warn("Unknown validation rule; passing.",
					"rule", settings.Key, "schemaType", st, "custom", settings.Custom)
				continue
			}
			var err error
			pass, err = rule.Fn(ctx, value, r.convertArgs(ctx, rule, settings.Args), scopes)
			if err != nil {
				// A throwing rule is a programming error; fail this field's
				// validation and let the whole-form fan-out isolate it.
				return failed, fmt.Errorf("rule %q failed: %w", settings.Key, err)
			}
		}
		if !pass {
			failed = append(failed, Result{Settings: settings, Message: r.message(st, settings)})
			if settings.Key == RuleKeyRequired {
				break
			}
		}
	}
	return failed, nil
}

// orderRules pins required to the front and code to the back, keeping the
// declared order for everything between.
func orderRules(rules []formstore.RuleSettings) []formstore.RuleSettings {
	ordered := make([]formstore.RuleSettings, 0, len(rules))
	var code []formstore.RuleSettings
	for _, settings := range rules {
		switch settings.Key {
		case RuleKeyRequired:
			ordered = append([]formstore.RuleSettings{settings}, ordered...)
		case RuleKeyCode:
			code = append(code, settings)
		default:
			ordered = append(ordered, settings)
		}
	}
	return append(ordered, code...)
}

// guardSkips evaluates a rule's validateWhen guard. A guard that fails to
// compile or evaluate skips the rule, consistent with the engine's
// expression failure policy.
func (r *Runner) guardSkips(ctx context.Context, settings formstore.RuleSettings, scopes expr.ScopeSet) (bool, error) {
	if settings.ValidateWhen == "" {
		return false, nil
	}
	compiled, err := r.engine.Compile(ctx, settings.ValidateWhen)
	if err != nil {
		return true, err
	}
	active, err := expr.EvaluateBool(ctx, compiled, scopes)
	if err != nil {
		return true, err
	}
	return !active, nil
}

// runCodeRule evaluates the user-authored boolean expression with `value`
// bound. Compilation or evaluation failure passes, fail-open like unknown
// rule keys.
func (r *Runner) runCodeRule(ctx context.Context, settings formstore.RuleSettings, value cty.Value, scopes expr.ScopeSet) bool {
	source, _ := settings.Args["source"].(string)
	if source == "" {
		return true
	}
	compiled, err := r.engine.Compile(ctx, source)
	if err != nil {
		return true
	}
	withValue := scopes
	withValue.Extra = map[string]cty.Value{}
	for k, v := range scopes.Extra {
		withValue.Extra[k] = v
	}
	if value == cty.NilVal {
		value = cty.NullVal(cty.DynamicPseudoType)
	}
	withValue.Extra["value"] = value
	pass, err := expr.EvaluateBool(ctx, compiled, withValue)
	if err != nil {
		return true
	}
	return pass
}

func (r *Runner) message(st schema.Type, settings formstore.RuleSettings) string {
	if settings.ErrorMessage != "" {
		return settings.ErrorMessage
	}
	if rule, ok := r.rules.Resolve(st, settings.Key, settings.Custom); ok {
		return rule.DefaultMessage
	}
	return "Invalid value"
}

// convertArgs coerces the serialized rule arguments to the rule's declared
// cty types. A mismatch keeps the raw value and logs; rules treat
// unusable arguments as absent.
func (r *Runner) convertArgs(ctx context.Context, rule Rule, raw map[string]any) map[string]cty.Value {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]cty.Value, len(raw))
	for name, value := range raw {
		v := schema.FromGo(value)
		if want, declared := rule.ArgTypes[name]; declared {
			converted, err := convert.Convert(v, want)
			if err != nil {
				ctxlog.FromContext(ctx).Warn("Rule argument has unexpected type.",
					"rule", rule.Key, "arg", name, "error", err)
			} else {
				v = converted
			}
		}
		out[name] = v
	}
	return out
}
