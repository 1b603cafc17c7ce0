package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdictFields() []Field {
	return []Field{
		{Key: "severity_level", Default: "UNKNOWN"},
		{Key: "rationale", Default: "Could not parse LLM JSON response."},
		{Key: "recommended_action", Default: "manual review"},
		{Key: "red_flags_triggered", Default: []string{}},
		{Key: "care_instructions", Default: []string{}, FromRaw: true},
	}
}

func TestExtract_AlwaysCarriesRequiredKeys(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"I am not sure what you mean.",
		"{",
		"}{",
		"{not json}",
		"```json\n{\"severity_level\": \"GREEN\",}\n```",
		"[1, 2, 3]",
		"null",
		"{\"severity_level\": \"RED\"}",
		"Sure! ```JSON\n{\"rationale\": \"ok\"}\n``` hope that helps",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			res := Extract(raw, verdictFields())
			for _, f := range verdictFields() {
				_, ok := res.Values[f.Key]
				assert.True(t, ok, "missing key %s", f.Key)
			}
			assert.Equal(t, raw, res.Raw)
		})
	}
}

func TestExtract_ParsesFencedAndProseWrapped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"severity_level":"GREEN","recommended_action":"self-care"}`},
		{"fenced", "```json\n{\"severity_level\":\"GREEN\",\"recommended_action\":\"self-care\"}\n```"},
		{"upper fence", "```JSON\n{\"severity_level\":\"GREEN\",\"recommended_action\":\"self-care\"}```"},
		{"prose", "Here is the result: {\"severity_level\":\"GREEN\",\"recommended_action\":\"self-care\"} Stay safe."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw, verdictFields())
			require.True(t, res.Parsed)
			assert.Equal(t, "GREEN", res.Values["severity_level"])
			assert.Equal(t, "self-care", res.Values["recommended_action"])
			// missing keys take defaults, not the raw text
			assert.Equal(t, "Could not parse LLM JSON response.", res.Values["rationale"])
			assert.Equal(t, []string{}, res.Values["care_instructions"])
		})
	}
}

func TestExtract_GreedyOutermostSpan(t *testing.T) {
	// first '{' to last '}' spans both objects, which is not valid JSON
	res := Extract(`{"a": 1} and {"b": 2}`, []Field{{Key: "a", Default: 0.0}})
	assert.False(t, res.Parsed)
	assert.Equal(t, 0.0, res.Values["a"])

	res = Extract(`{"outer": {"inner": true}}`, []Field{{Key: "outer", Default: nil}})
	require.True(t, res.Parsed)
	assert.Equal(t, map[string]interface{}{"inner": true}, res.Values["outer"])
}

func TestExtract_FallbackKeepsRawText(t *testing.T) {
	raw := "  Patient should probably see a doctor, hard to say.  "
	res := Extract(raw, verdictFields())

	assert.False(t, res.Parsed)
	assert.Equal(t, "UNKNOWN", res.Values["severity_level"])
	assert.Equal(t, "manual review", res.Values["recommended_action"])
	assert.Equal(t, []string{}, res.Values["red_flags_triggered"])
	assert.Equal(t, []string{"Patient should probably see a doctor, hard to say."}, res.Values["care_instructions"])

	textual := Extract("prose", []Field{{Key: "raw_output", Default: "", FromRaw: true}})
	assert.Equal(t, "prose", textual.Values["raw_output"])
}

func TestExtract_EmptyRawUsesDefaults(t *testing.T) {
	res := Extract("", verdictFields())
	assert.False(t, res.Parsed)
	assert.Equal(t, []string{}, res.Values["care_instructions"])
}

func TestExtract_DefaultsAreNotShared(t *testing.T) {
	fields := []Field{{Key: "flags", Default: []string{"x"}}}
	first := Extract("", fields)
	first.Values["flags"].([]string)[0] = "mutated"

	second := Extract("", fields)
	assert.Equal(t, []string{"x"}, second.Values["flags"])
	assert.Equal(t, []string{"x"}, fields[0].Default)
}

func TestResultAccessors(t *testing.T) {
	res := Extract(`{"d":"2","n":3.5,"s":"text","b":true,"list":["a",null,4],"single":"only","nil":null}`, nil)
	require.True(t, res.Parsed)

	d, ok := res.Float("d")
	assert.True(t, ok)
	assert.Equal(t, 2.0, d)

	n, ok := res.Float("n")
	assert.True(t, ok)
	assert.Equal(t, 3.5, n)

	_, ok = res.Float("s")
	assert.False(t, ok)

	s, ok := res.String("b")
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = res.String("nil")
	assert.False(t, ok)

	list, ok := res.StringSlice("list")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "4"}, list)

	// a bare string is not a list; callers decide whether to wrap it
	single, ok := res.StringSlice("single")
	assert.False(t, ok)
	assert.Nil(t, single)
}
