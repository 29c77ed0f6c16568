// Package runtime hosts the live side of the engine: the Store that turns a
// persisted form envelope into a reactive ComponentData tree, routes data
// writes into fields, fans validation out over the tree and renders the
// merged component states. Each Store owns one reactive queue; every
// mutation of its tree happens on that queue.
package runtime

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vk/formweave/internal/annotation"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/definer"
	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/field"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/localization"
	"github.com/vk/formweave/internal/reactive"
	"github.com/vk/formweave/internal/registry"
	"github.com/vk/formweave/internal/schema"
	"github.com/vk/formweave/internal/validation"
	"github.com/zclconf/go-cty/cty"
)

// Loader resolves a saved form by name, for template components that embed
// another form. The formrepo package provides a database-backed Loader;
// hosts may plug in their own.
type Loader func(ctx context.Context, name string) (*formstore.Envelope, error)

// Options configures a Store.
type Options struct {
	Registry *registry.Registry
	Loader   Loader
	Language string
	// Debounce overrides the field validation debounce, used by tests.
	Debounce time.Duration
}

// FormLoadError marks a form that failed to parse or build. The store stays
// usable: the error is rendered as an error banner instead of failing the
// viewer.
type FormLoadError struct {
	Err error
}

func (e *FormLoadError) Error() string { return "failed to load form: " + e.Err.Error() }
func (e *FormLoadError) Unwrap() error { return e.Err }

// Store orchestrates one live form instance.
type Store struct {
	reg    *registry.Registry
	loader Loader

	queue     *reactive.Queue
	graph     *reactive.Graph
	engine    *expr.Engine
	validator *validation.Runner
	env       *field.Env

	// rootData mirrors the latest value of every data key, bound or not.
	// Fields are the source of truth for bound keys; the mirror exists so
	// expression snapshots and data export read one place.
	rootData *expr.MapScope
	fields   map[string][]field.Field
	byKey    map[string]*ComponentData

	form    *Form
	root    *ComponentData
	loadErr error
	lang    string
	// depth counts template nesting levels, bounding recursive embeds.
	depth int

	ctx context.Context

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewStore creates a store with a fresh queue, graph and expression engine.
// ctx carries the logger used by queue-internal work for the store's whole
// lifetime.
func NewStore(ctx context.Context, opts Options) *Store {
	reg := opts.Registry
	if reg == nil {
		reg = registry.New()
	}
	engine := expr.NewEngine()
	queue := reactive.NewQueue()
	s := &Store{
		reg:       reg,
		loader:    opts.Loader,
		queue:     queue,
		graph:     reactive.NewGraph(queue),
		engine:    engine,
		validator: validation.NewRunner(validation.NewRegistry(), engine),
		rootData:  expr.NewMapScope(nil),
		fields:    map[string][]field.Field{},
		byKey:     map[string]*ComponentData{},
		lang:      opts.Language,
		ctx:       ctx,
		subs:      map[int]func(){},
	}
	s.env = &field.Env{
		Graph:           s.graph,
		Engine:          s.engine,
		Validator:       s.validator,
		Scopes:          s.rootScopes,
		LocalizeError:   s.localizeError,
		OnValueChanged:  s.onRootValueChanged,
		NeedsValidation: s.needsValidation,
		Debounce:        opts.Debounce,
	}
	return s
}

// Queue exposes the store's task queue for hosts that need to run work
// queue-confined, such as tests and the HTTP layer.
func (s *Store) Queue() *reactive.Queue { return s.queue }

// Validator exposes the rule registry for custom rule registration.
func (s *Store) Validator() *validation.Runner { return s.validator }

// Form returns the applied form aggregate, nil before the first apply.
func (s *Store) Form() *Form { return s.form }

// LoadError returns the recoverable load failure of the last apply, nil
// when the form loaded cleanly.
func (s *Store) LoadError() error { return s.loadErr }

// Root returns the live tree root, nil before the first apply.
func (s *Store) Root() *ComponentData { return s.root }

// Component resolves a live node by component key.
func (s *Store) Component(key string) (*ComponentData, bool) {
	cd, ok := s.byKey[key]
	return cd, ok
}

// SetLanguage switches the render language for localized props and error
// messages.
func (s *Store) SetLanguage(lang string) {
	s.queue.Do(func() {
		s.lang = lang
		s.notify()
	})
}

// Language returns the active render language.
func (s *Store) Language() string { return s.lang }

// ApplyStringForm parses a serialized envelope and applies it, seeding the
// data scope from initialData. A parse or build failure is recoverable: the
// store renders an error banner and returns a *FormLoadError.
func (s *Store) ApplyStringForm(ctx context.Context, raw []byte, initialData map[string]any) error {
	s.queue.Do(func() {
		env, err := formstore.ParseEnvelope(ctx, raw)
		if err != nil {
			s.failLoad(ctx, err)
			return
		}
		s.apply(ctx, env, initialData)
	})
	return s.loadErr
}

// ApplyPersistedForm applies an already-parsed envelope.
func (s *Store) ApplyPersistedForm(ctx context.Context, env *formstore.Envelope, initialData map[string]any) error {
	s.queue.Do(func() {
		if env == nil || env.Form == nil {
			s.failLoad(ctx, fmt.Errorf("form envelope has no form tree"))
			return
		}
		s.apply(ctx, env, initialData)
	})
	return s.loadErr
}

// apply replaces the live tree. Fields initialize only after the Form
// aggregate exists, so init-time expressions and localized props resolve.
func (s *Store) apply(ctx context.Context, env *formstore.Envelope, initialData map[string]any) {
	s.teardown(ctx)
	s.form = newForm(ctx, env, s.reg)
	if s.lang == "" {
		s.lang = s.form.Catalog.DefaultLanguage()
	}
	for key, value := range initialData {
		s.rootData.Set(key, schema.FromGo(value))
	}
	s.root = s.build(ctx, s.form.Root, nil, s.env, s.rootScopes, -1)
	s.initFields(ctx, s.root)
	s.loadErr = nil
	s.notify()
}

// failLoad records the failure and synthesizes an error banner tree in
// place of the form.
func (s *Store) failLoad(ctx context.Context, err error) {
	ctxlog.FromContext(ctx).Error("Form failed to load; rendering error banner.", "error", err)
	s.teardown(ctx)
	s.loadErr = &FormLoadError{Err: err}

	errType := s.reg.FirstTypeWithRole(RoleErrorMessage)
	if errType == "" {
		errType = "error-message"
	}
	banner := &formstore.Component{
		Key:   "formLoadError",
		Type:  errType,
		Props: map[string]formstore.Property{"text": formstore.Static(err.Error())},
	}
	env := &formstore.Envelope{Version: formstore.EnvelopeVersion, Form: banner}
	s.form = newForm(ctx, env, s.reg)
	s.root = s.build(ctx, banner, nil, s.env, s.rootScopes, -1)
	s.initFields(ctx, s.root)
	s.notify()
}

func (s *Store) teardown(ctx context.Context) {
	if s.root != nil {
		s.root.Dispose(ctx)
		s.root = nil
	}
	s.fields = map[string][]field.Field{}
	s.byKey = map[string]*ComponentData{}
	s.rootData = expr.NewMapScope(nil)
}

// ResolveModel maps a component type to its runtime model. Unknown dynamic
// template types synthesize a template model; anything else unknown gets an
// inert placeholder. ResolveModel never fails: a missing registration must
// not break the rest of the tree.
func (s *Store) ResolveModel(componentType string) *definer.Model {
	if m, ok := s.reg.Model(componentType); ok {
		return m
	}
	if name, ok := strings.CutPrefix(componentType, "template:"); ok && name != "" {
		return &definer.Model{Type: componentType, Kind: definer.KindTemplate, ValueType: schema.Object}
	}
	ctxlog.FromContext(s.ctx).Warn("Unknown component type; rendering placeholder.", "type", componentType)
	return placeholderModel(componentType)
}

// CreateComponentData mirrors one persisted subtree into live nodes. With
// deferFieldCalculation the caller initializes fields later, after the
// surrounding aggregate exists; without it the subtree initializes
// immediately, which suits dynamically inserted nodes. Must run on the
// store's queue.
func (s *Store) CreateComponentData(ctx context.Context, node *formstore.Component, deferFieldCalculation bool) *ComponentData {
	cd := s.build(ctx, node, nil, s.env, s.rootScopes, -1)
	if !deferFieldCalculation {
		s.initFields(ctx, cd)
	}
	return cd
}

func (s *Store) build(ctx context.Context, node *formstore.Component, parent *ComponentData, env *field.Env, scopes func() expr.ScopeSet, index int) *ComponentData {
	model := s.ResolveModel(node.Type)
	cd := &ComponentData{
		Node:   node,
		Model:  model,
		Parent: parent,
		Index:  index,
		scopes: scopes,
		store:  s,
	}
	s.byKey[node.Key] = cd

	for name, prop := range node.Props {
		switch prop.ComputeType {
		case formstore.ComputeFunction:
			compiled, err := s.engine.Compile(ctx, prop.FnSource)
			if err != nil {
				continue
			}
			if cd.computedProps == nil {
				cd.computedProps = map[string]*expr.Compiled{}
			}
			cd.computedProps[name] = compiled
		case formstore.ComputeLocalization:
			cd.localizedProps = append(cd.localizedProps, name)
		}
	}
	if node.SlotCondition != "" {
		if compiled, err := s.engine.Compile(ctx, node.SlotCondition); err == nil {
			cd.slotCondition = compiled
		}
	}

	if model.Valued != "" || model.Kind == definer.KindTemplate {
		cd.Field = s.buildField(ctx, cd, env, scopes)
	}

	// A repeater's persisted children are the per-item template; live item
	// subtrees appear under generated once the bound array settles.
	if model.Kind != definer.KindRepeater {
		for _, child := range node.Children {
			cd.Children = append(cd.Children, s.build(ctx, child, cd, env, scopes, -1))
		}
	}
	if node.Modal != nil {
		cd.Modal = s.build(ctx, node.Modal, cd, env, scopes, -1)
	}
	return cd
}

// dataKeyOf resolves the data key a valued component binds to: an explicit
// static "dataKey" prop, falling back to the component key.
func dataKeyOf(node *formstore.Component) string {
	if prop, ok := node.Props["dataKey"]; ok {
		if key, ok := prop.Value.(string); ok && key != "" {
			return key
		}
	}
	return node.Key
}

func (s *Store) buildField(ctx context.Context, cd *ComponentData, env *field.Env, scopes func() expr.ScopeSet) field.Field {
	node, model := cd.Node, cd.Model
	dataKey := dataKeyOf(node)

	cfg := field.SimpleConfig{
		ComponentKey: node.Key,
		DataKey:      dataKey,
		SchemaType:   model.ValueType,
		Default:      model.DefaultProps[model.Valued],
		Schema:       node.Schema,
	}
	if cd.computedProps != nil {
		cfg.Computed = cd.computedProps[model.Valued]
	}
	if sc := scopes(); sc.Data != nil {
		if v, ok := sc.Data.Get(dataKey); ok {
			cfg.Initial = v
		}
	}
	if cfg.Initial == cty.NilVal {
		if prop, ok := node.Props[model.Valued]; ok && prop.ComputeType == formstore.ComputeStatic && prop.Value != nil {
			cfg.Initial = schema.FromGo(prop.Value)
		}
	}

	switch model.Kind {
	case definer.KindRepeater:
		if cfg.SchemaType == "" {
			cfg.SchemaType = schema.Array
		}
		rep := field.NewRepeater(env, cfg)
		rep.OnLengthChanged = func(ctx context.Context, length int) {
			s.regenerate(ctx, cd, rep, length)
		}
		s.fields[dataKey] = append(s.fields[dataKey], rep)
		return rep
	case definer.KindTemplate:
		tf := newTemplateField(s, cd, env, cfg)
		s.fields[dataKey] = append(s.fields[dataKey], tf)
		return tf
	}

	// A one-way bound component reads through the field owning the data
	// key; it never owns value state itself.
	if model.PropsBindingTypes[model.Valued] == annotation.BindingOneWay {
		if owners := s.fields[dataKey]; len(owners) > 0 {
			return field.NewProxy(node.Key, owners[0])
		}
	}
	f := field.NewSimple(env, cfg)
	s.fields[dataKey] = append(s.fields[dataKey], f)
	return f
}

func (s *Store) initFields(ctx context.Context, cd *ComponentData) {
	cd.Walk(func(node *ComponentData) {
		if node.Field != nil {
			node.Field.Init(ctx)
		}
	})
}

// forget removes a disposed node from the store indexes.
func (s *Store) forget(cd *ComponentData) {
	if s.byKey[cd.Node.Key] == cd {
		delete(s.byKey, cd.Node.Key)
	}
	if cd.Field == nil {
		return
	}
	dataKey := cd.Field.DataKey()
	kept := s.fields[dataKey][:0]
	for _, f := range s.fields[dataKey] {
		if f != cd.Field {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		delete(s.fields, dataKey)
	} else {
		s.fields[dataKey] = kept
	}
}

// regenerate replaces a repeater's item subtrees after a length change. The
// old generation is disposed wholesale before the new one builds.
func (s *Store) regenerate(ctx context.Context, cd *ComponentData, rep *field.RepeaterField, length int) {
	cd.disposeGenerated(ctx)
	for i := 0; i < length; i++ {
		scope := &itemScope{store: s, rep: rep, idx: i}
		scopes := func() expr.ScopeSet {
			return expr.ScopeSet{Data: scope, Parent: &storeScope{s}, Root: &storeScope{s}}
		}
		env := s.itemEnv(scope, scopes)

		var item []*ComponentData
		for _, tmpl := range cd.Node.Children {
			clone := tmpl.Clone()
			suffixKeys(clone, i)
			item = append(item, s.build(ctx, clone, cd, env, scopes, i))
		}
		for _, child := range item {
			s.initFields(ctx, child)
		}
		cd.generated = append(cd.generated, item)
	}
	s.notify()
}

// itemEnv derives a field environment whose data scope is one repeater
// element. Item writes route back through the repeater's array.
func (s *Store) itemEnv(scope *itemScope, scopes func() expr.ScopeSet) *field.Env {
	env := *s.env
	env.Scopes = scopes
	env.OnValueChanged = func(ctx context.Context, f field.Field, v cty.Value) {
		if err := scope.Set(f.DataKey(), v); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to write repeater item value.",
				"field", f.ComponentKey(), "error", err)
		}
	}
	return &env
}

// suffixKeys gives every node of a cloned item template a per-item key so
// tree keys stay pairwise distinct across generations.
func suffixKeys(c *formstore.Component, index int) {
	suffix := "#" + strconv.Itoa(index)
	c.Walk(func(node *formstore.Component) bool {
		node.Key += suffix
		return true
	})
}

func (s *Store) rootScopes() expr.ScopeSet {
	root := &storeScope{s}
	return expr.ScopeSet{Data: root, Parent: root, Root: root}
}

// onRootValueChanged is the write fan-out for root-scope fields: mirror the
// value, sync siblings bound to the same key, invalidate dependents and
// wake subscribers.
func (s *Store) onRootValueChanged(ctx context.Context, f field.Field, v cty.Value) {
	dataKey := f.DataKey()
	s.rootData.Set(dataKey, v)
	for _, sibling := range s.fields[dataKey] {
		if sibling != f {
			sibling.Adopt(ctx, v)
		}
	}
	s.graph.Invalidate(ctx, field.SourceKey(dataKey))
	s.notify()
}

func (s *Store) needsValidation(f field.Field) bool {
	cd, ok := s.byKey[f.ComponentKey()]
	if !ok {
		return true
	}
	return cd.Visible(s.ctx)
}

// localizeError maps a failed rule to its per-language message. Without a
// catalog entry the rule's own message stands.
func (s *Store) localizeError(ctx context.Context, componentKey string, res validation.Result) string {
	if s.form == nil || s.form.Catalog == nil {
		return res.Message
	}
	msgKey := localization.MessageKey(componentKey, localization.RuleEntry(res.Settings.Key), "errorMessage")
	if !s.form.Catalog.Has(msgKey) {
		return res.Message
	}
	vars := make(map[string]cty.Value, len(res.Settings.Args))
	for name, value := range res.Settings.Args {
		vars[name] = schema.FromGo(value)
	}
	return s.form.Catalog.Message(ctx, s.lang, msgKey, vars)
}

// SetValue writes a value into the component's field. External entrypoint;
// runs queue-confined.
func (s *Store) SetValue(ctx context.Context, componentKey string, value any) error {
	var err error
	s.queue.Do(func() {
		cd, ok := s.byKey[componentKey]
		if !ok || cd.Field == nil {
			err = fmt.Errorf("no field for component %q", componentKey)
			return
		}
		cd.Field.SetValue(ctx, schema.FromGo(value))
	})
	return err
}

// SetData writes a value by data key: into the owning field when the key is
// bound, into the root data mirror otherwise.
func (s *Store) SetData(ctx context.Context, dataKey string, value any) {
	s.queue.Do(func() {
		sc := storeScope{s}
		if err := sc.Set(dataKey, schema.FromGo(value)); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to set data value.", "key", dataKey, "error", err)
		}
	})
}

// Data exports the current data scope as plain Go values.
func (s *Store) Data(ctx context.Context) map[string]any {
	out := map[string]any{}
	s.queue.Do(func() {
		for _, key := range s.rootData.Keys() {
			v, _ := s.rootData.Get(key)
			out[key] = schema.ToGo(v)
		}
	})
	return out
}

// FormErrorKey is the pseudo component key whole-form validator failures
// report under.
const FormErrorKey = "_form"

// Validate runs every visible field's validation immediately and merges the
// whole-form validator. One failing rule implementation does not abort the
// others; its field reports a generic failure instead.
func (s *Store) Validate(ctx context.Context) map[string]string {
	failures := map[string]string{}
	s.queue.Do(func() {
		if s.root == nil {
			return
		}
		s.root.Walk(func(cd *ComponentData) {
			if cd.Field == nil || !cd.Visible(ctx) {
				return
			}
			msg, err := cd.Field.Validate(ctx)
			if err != nil {
				ctxlog.FromContext(ctx).Error("Field validation failed.",
					"component", cd.Node.Key, "error", err)
				failures[cd.Node.Key] = "Validation failed"
				return
			}
			if msg != "" {
				failures[cd.Node.Key] = msg
			}
		})
		if msg := s.runFormValidator(ctx); msg != "" {
			failures[FormErrorKey] = msg
		}
	})
	return failures
}

// runFormValidator evaluates the whole-form validation expression. A bool
// result maps false to a generic message; a string result is the message
// itself, empty meaning valid. Failures pass, like unknown rules.
func (s *Store) runFormValidator(ctx context.Context) string {
	if s.form == nil || s.form.FormValidator == "" {
		return ""
	}
	compiled, err := s.engine.Compile(ctx, s.form.FormValidator)
	if err != nil {
		return ""
	}
	val, err := expr.Evaluate(ctx, compiled, s.rootScopes())
	if err != nil || val == cty.NilVal || val.IsNull() || !val.IsKnown() {
		return ""
	}
	switch val.Type() {
	case cty.Bool:
		if !val.True() {
			return "Form is invalid"
		}
	case cty.String:
		return val.AsString()
	}
	return ""
}

// FireEvent executes the actions bound to a component event. The event
// argument and the per-action args bind as `e` and `args`; a failing action
// is a logged no-op and the remaining actions still run.
func (s *Store) FireEvent(ctx context.Context, componentKey, event string, arg map[string]any) {
	s.queue.Do(func() {
		cd, ok := s.byKey[componentKey]
		if !ok {
			return
		}
		for _, action := range cd.Node.Events[event] {
			body := action.Name
			if s.form != nil {
				if def, ok := s.form.Action(action.Name); ok {
					body = def.Body
				}
			}
			compiled, err := s.engine.Compile(ctx, body)
			if err != nil {
				continue
			}
			scopes := cd.Scopes()
			scopes.Extra = map[string]cty.Value{
				"e":    schema.FromGo(arg),
				"args": schema.FromGo(action.Args),
			}
			if err := expr.ExecuteAction(ctx, compiled, scopes); err != nil {
				ctxlog.FromContext(ctx).Warn("Action failed.",
					"component", componentKey, "event", event, "action", action.Key, "error", err)
			}
		}
	})
}

// Reset restores every field to its loaded data; Clear drops the loaded
// data and restores model defaults.
func (s *Store) Reset(ctx context.Context) {
	s.queue.Do(func() { s.eachField(func(f field.Field) { f.Reset(ctx) }) })
}

func (s *Store) Clear(ctx context.Context) {
	s.queue.Do(func() { s.eachField(func(f field.Field) { f.Clear(ctx) }) })
}

func (s *Store) eachField(fn func(field.Field)) {
	if s.root == nil {
		return
	}
	s.root.Walk(func(cd *ComponentData) {
		if cd.Field != nil {
			fn(cd.Field)
		}
	})
}

// Subscribe registers a change listener fired after every data mutation,
// tree rebuild or language switch. Listeners run on the store queue and
// must not block. The returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Close disposes the live tree and stops the queue.
func (s *Store) Close(ctx context.Context) {
	s.queue.Do(func() { s.teardown(ctx) })
	s.queue.Close()
}

// storeScope is the root data accessor behind form.data: reads come from
// the mirror, writes route into the owning field when the key is bound.
type storeScope struct {
	s *Store
}

func (sc *storeScope) Get(key string) (cty.Value, bool) {
	return sc.s.rootData.Get(key)
}

func (sc *storeScope) Set(key string, v cty.Value) error {
	if owners := sc.s.fields[key]; len(owners) > 0 {
		owners[0].SetValue(sc.s.ctx, v)
		return nil
	}
	sc.s.rootData.Set(key, v)
	sc.s.graph.Invalidate(sc.s.ctx, field.SourceKey(key))
	sc.s.notify()
	return nil
}

func (sc *storeScope) Has(key string) bool { return sc.s.rootData.Has(key) }

func (sc *storeScope) Keys() []string { return sc.s.rootData.Keys() }

// itemScope exposes one repeater array element as a data scope. Writes
// rebuild the element and push the whole array back through the repeater
// field, so dependents of the array re-evaluate.
type itemScope struct {
	store *Store
	rep   *field.RepeaterField
	idx   int
}

func (sc *itemScope) element() cty.Value {
	return sc.rep.Item(sc.idx)
}

func (sc *itemScope) Get(key string) (cty.Value, bool) {
	el := sc.element()
	if el.IsNull() || !el.Type().IsObjectType() || !el.Type().HasAttribute(key) {
		return cty.NilVal, false
	}
	return el.GetAttr(key), true
}

func (sc *itemScope) Set(key string, v cty.Value) error {
	attrs := map[string]cty.Value{}
	el := sc.element()
	if !el.IsNull() && el.Type().IsObjectType() {
		for name := range el.Type().AttributeTypes() {
			attrs[name] = el.GetAttr(name)
		}
	}
	attrs[key] = v

	length := sc.rep.Length()
	if sc.idx < 0 || sc.idx >= length {
		return fmt.Errorf("repeater item %d out of range", sc.idx)
	}
	elems := make([]cty.Value, length)
	for i := 0; i < length; i++ {
		if i == sc.idx {
			elems[i] = cty.ObjectVal(attrs)
		} else {
			elems[i] = sc.rep.Item(i)
		}
	}
	sc.rep.SetValue(sc.store.ctx, cty.TupleVal(elems))
	return nil
}

func (sc *itemScope) Has(key string) bool {
	_, ok := sc.Get(key)
	return ok
}

func (sc *itemScope) Keys() []string {
	el := sc.element()
	if el.IsNull() || !el.Type().IsObjectType() {
		return nil
	}
	types := el.Type().AttributeTypes()
	keys := make([]string, 0, len(types))
	for name := range types {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
