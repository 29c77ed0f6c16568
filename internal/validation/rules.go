// Package validation implements the rule registry and the per-field
// validation runner. Rules are keyed by schema type and rule key; each rule
// declares runtime-checked argument types and a validate function over cty
// values. Resolution is deliberately fail-open: a saved form referencing a
// rule this build does not know must still submit, so unknown rule keys log
// a warning and pass.
package validation

import (
	"context"
	"net/mail"
	"net/url"
	"regexp"
	"time"

	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// RuleKeyRequired and RuleKeyCode are position-pinned: required always runs
// first, code always runs last.
const (
	RuleKeyRequired = "required"
	RuleKeyCode     = "code"
)

// Func checks one value. A false result means the rule failed; err reports
// a rule implementation problem and is treated as a programming error by
// the caller.
type Func func(ctx context.Context, v cty.Value, args map[string]cty.Value, scopes expr.ScopeSet) (bool, error)

// Rule is one registered validation rule.
type Rule struct {
	Key            string
	ArgTypes       map[string]cty.Type
	DefaultMessage string
	Fn             Func
}

// Registry holds built-in and custom rules keyed by schema type.
type Registry struct {
	builtin map[schema.Type]map[string]Rule
	custom  map[schema.Type]map[string]Rule
}

// NewRegistry creates a registry with the built-in rule sets installed.
func NewRegistry() *Registry {
	r := &Registry{
		builtin: map[schema.Type]map[string]Rule{},
		custom:  map[schema.Type]map[string]Rule{},
	}
	r.installBuiltins()
	return r
}

// RegisterCustom adds a developer-supplied rule for one schema type.
func (r *Registry) RegisterCustom(st schema.Type, rule Rule) {
	if r.custom[st] == nil {
		r.custom[st] = map[string]Rule{}
	}
	r.custom[st][rule.Key] = rule
}

// Resolve looks a rule up by schema type and key, custom rules first.
func (r *Registry) Resolve(st schema.Type, key string, custom bool) (Rule, bool) {
	if custom {
		rule, ok := r.custom[st][key]
		return rule, ok
	}
	if rule, ok := r.builtin[st][key]; ok {
		return rule, ok
	}
	// Rules valid for every schema type live under the empty type key.
	rule, ok := r.builtin[""][key]
	return rule, ok
}

func (r *Registry) add(st schema.Type, rule Rule) {
	if r.builtin[st] == nil {
		r.builtin[st] = map[string]Rule{}
	}
	r.builtin[st][rule.Key] = rule
}

func (r *Registry) installBuiltins() {
	// Type-independent rules.
	r.add("", Rule{
		Key:            RuleKeyRequired,
		DefaultMessage: "Required",
		Fn: func(_ context.Context, v cty.Value, _ map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			return !isEmpty(v), nil
		},
	})

	// String rules.
	r.add(schema.String, Rule{
		Key:            "minLength",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too short",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			return int64(len([]rune(s))) >= intArg(args, "value"), nil
		},
	})
	r.add(schema.String, Rule{
		Key:            "maxLength",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too long",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			return int64(len([]rune(s))) <= intArg(args, "value"), nil
		},
	})
	r.add(schema.String, Rule{
		Key:            "pattern",
		ArgTypes:       map[string]cty.Type{"value": cty.String},
		DefaultMessage: "Invalid format",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			pattern, _ := stringValue(args["value"])
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, err
			}
			return re.MatchString(s), nil
		},
	})
	r.add(schema.String, Rule{
		Key:            "email",
		DefaultMessage: "Invalid email address",
		Fn: func(_ context.Context, v cty.Value, _ map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			_, err := mail.ParseAddress(s)
			return err == nil, nil
		},
	})
	r.add(schema.String, Rule{
		Key:            "url",
		DefaultMessage: "Invalid URL",
		Fn: func(_ context.Context, v cty.Value, _ map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			parsed, err := url.Parse(s)
			return err == nil && parsed.Scheme != "" && parsed.Host != "", nil
		},
	})

	// Number rules.
	r.add(schema.Number, Rule{
		Key:            "min",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too small",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			n, ok := numberValue(v)
			if !ok {
				return true, nil
			}
			limit, _ := numberValue(args["value"])
			return n >= limit, nil
		},
	})
	r.add(schema.Number, Rule{
		Key:            "max",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too large",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			n, ok := numberValue(v)
			if !ok {
				return true, nil
			}
			limit, _ := numberValue(args["value"])
			return n <= limit, nil
		},
	})
	r.add(schema.Number, Rule{
		Key:            "integer",
		DefaultMessage: "Must be a whole number",
		Fn: func(_ context.Context, v cty.Value, _ map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			n, ok := numberValue(v)
			if !ok {
				return true, nil
			}
			return n == float64(int64(n)), nil
		},
	})

	// Array rules.
	r.add(schema.Array, Rule{
		Key:            "minItems",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too few items",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			n, ok := lengthOf(v)
			if !ok {
				return true, nil
			}
			return n >= intArg(args, "value"), nil
		},
	})
	r.add(schema.Array, Rule{
		Key:            "maxItems",
		ArgTypes:       map[string]cty.Type{"value": cty.Number},
		DefaultMessage: "Too many items",
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			n, ok := lengthOf(v)
			if !ok {
				return true, nil
			}
			return n <= intArg(args, "value"), nil
		},
	})

	// Date and time rules share implementations over their layouts.
	r.add(schema.Date, temporalRule("before", "2006-01-02", "Date is too late", func(v, limit time.Time) bool { return v.Before(limit) }))
	r.add(schema.Date, temporalRule("after", "2006-01-02", "Date is too early", func(v, limit time.Time) bool { return v.After(limit) }))
	r.add(schema.Time, temporalRule("before", "15:04", "Time is too late", func(v, limit time.Time) bool { return v.Before(limit) }))
	r.add(schema.Time, temporalRule("after", "15:04", "Time is too early", func(v, limit time.Time) bool { return v.After(limit) }))
}

func temporalRule(key, layout, message string, cmp func(v, limit time.Time) bool) Rule {
	return Rule{
		Key:            key,
		ArgTypes:       map[string]cty.Type{"value": cty.String},
		DefaultMessage: message,
		Fn: func(_ context.Context, v cty.Value, args map[string]cty.Value, _ expr.ScopeSet) (bool, error) {
			s, ok := stringValue(v)
			if !ok {
				return true, nil
			}
			parsed, err := time.Parse(layout, s)
			if err != nil {
				return false, nil
			}
			limitStr, _ := stringValue(args["value"])
			limit, err := time.Parse(layout, limitStr)
			if err != nil {
				return false, err
			}
			return cmp(parsed, limit), nil
		},
	}
}

// isEmpty is the required-rule emptiness check: null, unknown, empty string
// and empty collection all count as empty.
func isEmpty(v cty.Value) bool {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return true
	}
	switch {
	case v.Type() == cty.String:
		return v.AsString() == ""
	case v.Type().IsTupleType() || v.Type().IsListType() || v.Type().IsSetType():
		return v.LengthInt() == 0
	}
	return false
}

func stringValue(v cty.Value) (string, bool) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return "", false
	}
	s := v.AsString()
	if s == "" {
		return "", false
	}
	return s, true
}

func numberValue(v cty.Value) (float64, bool) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return 0, false
	}
	converted, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, false
	}
	f, _ := converted.AsBigFloat().Float64()
	return f, true
}

func intArg(args map[string]cty.Value, name string) int64 {
	f, _ := numberValue(args[name])
	return int64(f)
}

func lengthOf(v cty.Value) (int64, bool) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return 0, false
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType():
		return int64(len(ty.AttributeTypes())), true
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType() || ty.IsMapType():
		return int64(v.LengthInt()), true
	}
	return 0, false
}
