package runtime

import (
	"context"

	"github.com/vk/formweave/internal/definer"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/localization"
	"github.com/vk/formweave/internal/registry"
)

// Role names the engine consults when resolving the auxiliary renderers.
const (
	RoleModal        = "modal"
	RoleTooltip      = "tooltip"
	RoleErrorMessage = "error-message"
)

// Form is the immutable aggregate built once per applied envelope: the
// persisted tree, its localization catalog, the reusable action bodies and
// the resolved auxiliary component types. The live, mutable side of the
// form lives in the Store's ComponentData tree.
type Form struct {
	Envelope *formstore.Envelope
	Root     *formstore.Component
	Catalog  *localization.Catalog
	Actions  map[string]formstore.ActionDefinition

	// Auxiliary renderer types: the envelope's explicit choice when set,
	// otherwise the first registered component carrying the role.
	ModalType   string
	TooltipType string
	ErrorType   string

	// FormValidator is the whole-form validation expression source, empty
	// when the form has none.
	FormValidator string

	// RenamedKeys counts the duplicate-key repairs UnifyTree performed.
	RenamedKeys int
}

// newForm builds the aggregate from a parsed envelope. The tree is key
// unified in place before anything indexes it.
func newForm(ctx context.Context, env *formstore.Envelope, reg *registry.Registry) *Form {
	renamed := formstore.UnifyTree(ctx, env.Form)

	f := &Form{
		Envelope:      env,
		Root:          env.Form,
		Catalog:       localization.NewCatalog(ctx, env.Localization, env.Languages, env.DefaultLanguage),
		Actions:       env.Actions,
		ModalType:     env.ModalType,
		TooltipType:   env.TooltipType,
		ErrorType:     env.ErrorType,
		FormValidator: env.FormValidator,
		RenamedKeys:   renamed,
	}
	if f.ModalType == "" {
		f.ModalType = reg.FirstTypeWithRole(RoleModal)
	}
	if f.TooltipType == "" {
		f.TooltipType = reg.FirstTypeWithRole(RoleTooltip)
	}
	if f.ErrorType == "" {
		f.ErrorType = reg.FirstTypeWithRole(RoleErrorMessage)
	}
	return f
}

// Action resolves a named reusable action body.
func (f *Form) Action(name string) (formstore.ActionDefinition, bool) {
	def, ok := f.Actions[name]
	return def, ok
}

// placeholderModel is the never-fail fallback of ResolveModel: an inert
// component that renders the failure instead of breaking the tree.
func placeholderModel(componentType string) *definer.Model {
	return &definer.Model{
		Type: componentType,
		Kind: definer.KindComponent,
	}
}
