package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testFields = []Field{
	{Name: "hostname", AlwaysApply: true},
	{Name: "platform"},
	{Name: "description"},
}

func TestClassify_CreateKeepsOnlyNonEmptyFields(t *testing.T) {
	candidate := Record{"hostname": "sw1", "platform": "ios", "description": ""}

	res := Classify(candidate, nil, testFields, nil)

	assert.Equal(t, DecisionCreate, res.Decision)
	assert.Equal(t, Record{"hostname": "sw1", "platform": "ios"}, res.Changes)
}

func TestClassify_EmptyCandidateValueNeverClobbers(t *testing.T) {
	candidate := Record{"hostname": "sw1", "platform": "", "description": nil}
	existing := Record{"hostname": "sw1", "platform": "ios", "description": "core switch"}

	res := Classify(candidate, existing, testFields, nil)

	assert.Equal(t, DecisionNoop, res.Decision)
	assert.Empty(t, res.Changes)
}

func TestClassify_UpdateCollectsOnlyDifferingFields(t *testing.T) {
	candidate := Record{"hostname": "sw1", "platform": "nxos", "description": "core switch"}
	existing := Record{"hostname": "sw1", "platform": "ios", "description": "core switch"}

	res := Classify(candidate, existing, testFields, nil)

	assert.Equal(t, DecisionUpdate, res.Decision)
	assert.Equal(t, Record{"platform": "nxos"}, res.Changes)
}

func TestClassify_IgnoredFieldsAreSkipped(t *testing.T) {
	candidate := Record{"hostname": "sw1", "platform": "nxos"}
	existing := Record{"hostname": "sw1", "platform": "ios"}

	res := Classify(candidate, existing, testFields, map[string]bool{"platform": true})

	assert.Equal(t, DecisionNoop, res.Decision)
}

func TestClassify_AlwaysApplyBypassesIgnore(t *testing.T) {
	candidate := Record{"hostname": "sw2"}
	existing := Record{"hostname": "sw1"}

	res := Classify(candidate, existing, testFields, map[string]bool{"hostname": true})

	assert.Equal(t, DecisionUpdate, res.Decision)
	assert.Equal(t, Record{"hostname": "sw2"}, res.Changes)
}

func TestClassify_LooseNumericEquality(t *testing.T) {
	// JSON decoding yields float64 while the store returns int64; the two
	// must compare equal.
	fields := []Field{{Name: "speed"}}
	candidate := Record{"speed": float64(1000)}
	existing := Record{"speed": int64(1000)}

	res := Classify(candidate, existing, fields, nil)

	assert.Equal(t, DecisionNoop, res.Decision)
}

func TestClassify_IsIdempotent(t *testing.T) {
	candidate := Record{"hostname": "sw1", "platform": "nxos"}
	existing := Record{"hostname": "sw1", "platform": "ios", "description": "x"}

	first := Classify(candidate, existing, testFields, nil)
	assert.Equal(t, DecisionUpdate, first.Decision)

	// Apply the changes and classify again: nothing left to do.
	for k, v := range first.Changes {
		existing[k] = v
	}
	second := Classify(candidate, existing, testFields, nil)
	assert.Equal(t, DecisionNoop, second.Decision)
}

func TestDedupeLast_KeepsLastOccurrence(t *testing.T) {
	records := []Record{
		{"key": "a", "v": 1},
		{"key": "b", "v": 2},
		{"key": "a", "v": 3},
	}

	kept := DedupeLast(records, func(r Record) string { return r["key"].(string) })

	assert.Len(t, kept, 2)
	assert.Equal(t, 2, kept[0]["v"])
	assert.Equal(t, 3, kept[1]["v"])
}

func TestDedupeLast_NoDuplicatesPreservesOrder(t *testing.T) {
	records := []Record{
		{"key": "a"},
		{"key": "b"},
		{"key": "c"},
	}

	kept := DedupeLast(records, func(r Record) string { return r["key"].(string) })

	assert.Equal(t, records, kept)
}
