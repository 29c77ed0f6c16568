package formstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Component {
	return &Component{
		Key:  "root",
		Type: "group",
		Children: []*Component{
			{
				Key:  "name",
				Type: "input",
				Props: map[string]Property{
					"value":       Static(""),
					"placeholder": Localized(),
					"visible":     Computed("form.data.showName"),
				},
				Events: map[string][]ActionData{
					"onChange": {{Name: "recalculate"}},
				},
			},
			{
				Key:  "price",
				Type: "number",
				Schema: &ValidationSchema{
					Rules: []RuleSettings{{Key: "required"}, {Key: "min", Args: map[string]any{"value": 0.0}}},
				},
			},
		},
	}
}

func TestRoundTrip_PreservesTreeStructure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	original := sampleTree()
	original.AssignActionKeys()

	// --- Act ---
	data, err := json.Marshal(original)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	rebuilt, err := CreateFromObject(parsed)
	require.NoError(t, err)

	// --- Assert ---
	require.Len(t, rebuilt.Children, 2)
	assert.Equal(t, "root", rebuilt.Key)
	assert.Equal(t, "name", rebuilt.Children[0].Key)
	assert.Equal(t, ComputeFunction, rebuilt.Children[0].Props["visible"].ComputeType)
	assert.Equal(t, ComputeLocalization, rebuilt.Children[0].Props["placeholder"].ComputeType)
	assert.Equal(t, "min", rebuilt.Children[1].Schema.Rules[1].Key)
	// Action keys assigned before serialization survive the round-trip.
	assert.Equal(t,
		original.Children[0].Events["onChange"][0].Key,
		rebuilt.Children[0].Events["onChange"][0].Key)
	assert.NotEmpty(t, rebuilt.Children[0].Events["onChange"][0].Key)
}

func TestCreateFromObject_AssignsMissingActionKeys(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"key":  "a",
		"type": "button",
		"events": map[string]any{
			"onClick": []any{map[string]any{"name": "submit"}},
		},
	}

	c, err := CreateFromObject(raw)
	require.NoError(t, err)
	require.Len(t, c.Events["onClick"], 1)
	assert.NotEmpty(t, c.Events["onClick"][0].Key)
}

func TestUnifyTree_MakesKeysPairwiseDistinct(t *testing.T) {
	t.Parallel()

	root := &Component{
		Key: "root", Type: "group",
		Children: []*Component{
			{Key: "field", Type: "input"},
			{Key: "field", Type: "input"},
			{Key: "field", Type: "input", Modal: &Component{Key: "root", Type: "modal"}},
		},
	}

	renamed := UnifyTree(context.Background(), root)

	assert.Equal(t, 3, renamed)
	seen := map[string]int{}
	root.Walk(func(c *Component) bool {
		seen[c.Key]++
		return true
	})
	for key, count := range seen {
		assert.Equal(t, 1, count, "key %q occurs %d times", key, count)
	}
	// First occurrence keeps its key.
	assert.Equal(t, "field", root.Children[0].Key)
}

func TestParseEnvelope_UnknownVersionTolerated(t *testing.T) {
	t.Parallel()

	payload := `{"version":"99","form":{"key":"root","type":"group"}}`

	env, err := ParseEnvelope(context.Background(), []byte(payload))

	require.NoError(t, err)
	assert.Equal(t, "99", env.Version)
	assert.Equal(t, "root", env.Form.Key)
}

func TestParseEnvelope_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseEnvelope(context.Background(), []byte(`{"version":`))
	require.Error(t, err)

	_, err = ParseEnvelope(context.Background(), []byte(`{"version":"1"}`))
	require.Error(t, err, "an envelope without a form tree is unusable")
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	original := sampleTree()
	copied := original.Clone()
	copied.Children[0].Key = "changed"
	copied.Children[0].Props["value"] = Static("x")

	assert.Equal(t, "name", original.Children[0].Key)
	assert.Equal(t, "", original.Children[0].Props["value"].Value)
}
