package memoryadmission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuro-ai/brain/types"
)

func TestEvaluateNoTriggerNoProposals(t *testing.T) {
	c := New()
	proposals, correlationID := c.Evaluate(types.UserMessage{Text: "hello there"})
	assert.Empty(t, proposals)
	assert.NotEmpty(t, correlationID)
}

func TestEvaluatePreferenceTrigger(t *testing.T) {
	c := New()
	proposals, _ := c.Evaluate(types.UserMessage{Text: "I like jazz music"})
	require.Len(t, proposals, 1)
	assert.Equal(t, "preference_affinity", proposals[0].Dimension)
	assert.Equal(t, 0.2, proposals[0].Delta)
	assert.Equal(t, 0.8, proposals[0].Confidence)
}

func TestEvaluateMultipleTriggers(t *testing.T) {
	c := New()
	proposals, _ := c.Evaluate(types.UserMessage{Text: "please stop, it's too much, especially at night"})
	require.Len(t, proposals, 2)
}

func TestEvaluateConfidenceClamped(t *testing.T) {
	c := New()
	proposals, _ := c.Evaluate(types.UserMessage{Text: "i prefer quiet evenings"})
	require.Len(t, proposals, 1)
	assert.GreaterOrEqual(t, proposals[0].Confidence, 0.0)
	assert.LessOrEqual(t, proposals[0].Confidence, 1.0)
}

func TestContextHashDeterministic(t *testing.T) {
	ctx := types.MessageContext{Mode: "voice", Location: "home", Metadata: map[string]string{"a": "1", "b": "2"}}
	assert.Equal(t, contextHash(ctx), contextHash(ctx))
}

func TestContextHashIgnoresMetadataOrder(t *testing.T) {
	ctx1 := types.MessageContext{Mode: "voice", Metadata: map[string]string{"a": "1", "b": "2"}}
	ctx2 := types.MessageContext{Mode: "voice", Metadata: map[string]string{"b": "2", "a": "1"}}
	assert.Equal(t, contextHash(ctx1), contextHash(ctx2))
}
