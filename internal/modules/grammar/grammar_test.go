package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

func step(key string, bloom curriculum.BloomLevel, narr curriculum.NarrativePosition, objectives ...string) curriculum.StepGrammar {
	return curriculum.StepGrammar{StepKey: key, BloomLevel: bloom, NarrativePosition: narr, LearningObjectives: objectives}
}

func codes(r curriculum.Report) []string {
	var out []string
	for _, is := range r.Issues {
		out = append(out, is.Code)
	}
	return out
}

func TestValidatePerfectCourse(t *testing.T) {
	keys := []string{"m1s1", "m1s2", "m2s1"}
	r := Validate(keys, []curriculum.StepGrammar{
		step("m1s1", curriculum.BloomRemember, curriculum.NarrativeHook, "Define velocity"),
		step("m1s2", curriculum.BloomApply, curriculum.NarrativeDevelopment, "Calculate displacement from a graph"),
		step("m2s1", curriculum.BloomCreate, curriculum.NarrativeSynthesis, "Design a simple experiment"),
	})
	assert.Equal(t, 100, r.Score)
	assert.True(t, r.Passed)
	assert.Empty(t, r.Issues)
}

func TestValidateDeductions(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	r := Validate(keys, []curriculum.StepGrammar{
		// opens on development: weak opening (-5)
		step("a", curriculum.BloomCreate, curriculum.NarrativeDevelopment, "Build a model"),
		// bloom drops create -> understand (-5), narrative backwards (-3), vague verb (-2)
		step("b", curriculum.BloomUnderstand, curriculum.NarrativeFoundation, "Understand forces"),
		// missing "c" (-15 error)
		// closes on foundation (-5)
		step("d", curriculum.BloomApply, curriculum.NarrativeFoundation, "Solve problems"),
	})
	assert.Equal(t, 100-5-5-3-2-15-5, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, 1, r.Errors())
	assert.ElementsMatch(t, []string{
		CodeWeakOpening, CodeBloomRegression, CodeNarrativeBackwards,
		CodeUnmeasurableVerb, CodeMissingGrammar, CodeWeakClosing,
	}, codes(r))
}

func TestValidateInvalidLabelsAreErrors(t *testing.T) {
	r := Validate([]string{"a"}, []curriculum.StepGrammar{
		step("a", "memorize", "climax"),
	})
	// no objectives -10, bloom -10, narrative -5
	assert.Equal(t, 75, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, 3, r.Errors())
}

func TestValidateCapsVerbPenaltyAndClampsScore(t *testing.T) {
	vague := []string{"Know a", "Learn b", "Get c", "Grasp d", "See e", "Feel f"}
	r := Validate([]string{"a"}, []curriculum.StepGrammar{
		step("a", curriculum.BloomRemember, curriculum.NarrativeFoundation, vague...),
	})
	// too many objectives -3, verbs capped at -10, weak closing -5
	assert.Equal(t, 100-3-10-5, r.Score)

	many := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		many = append(many, "x")
	}
	r = Validate(many, nil)
	assert.Equal(t, 0, r.Score)
	assert.False(t, r.Passed)
}

func TestValidateWithCustomPassScore(t *testing.T) {
	keys := []string{"a"}
	g := []curriculum.StepGrammar{step("a", curriculum.BloomApply, curriculum.NarrativeFoundation, "Solve it")}
	r := ValidateWith(keys, g, 96)
	assert.Equal(t, 95, r.Score)
	assert.False(t, r.Passed)
	assert.True(t, ValidateWith(keys, g, 90).Passed)
}

func TestNormalize(t *testing.T) {
	out := Normalize([]string{"m1s1", "m1s2"}, []curriculum.StepGrammar{
		{StepKey: "m1s2", BloomLevel: " Analysing ", NarrativePosition: "Synthesis", LearningObjectives: []string{" Compare ", ""}},
		{StepKey: "ghost", BloomLevel: "apply"},
		{StepKey: " m1s1 ", BloomLevel: "Remembering", NarrativePosition: "HOOK"},
		{StepKey: "m1s1", BloomLevel: "create"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "m1s1", out[0].StepKey)
	assert.Equal(t, curriculum.BloomRemember, out[0].BloomLevel)
	assert.Equal(t, curriculum.NarrativeHook, out[0].NarrativePosition)
	assert.Equal(t, curriculum.BloomAnalyze, out[1].BloomLevel)
	assert.Equal(t, []string{"Compare"}, out[1].LearningObjectives)
}

func TestParse(t *testing.T) {
	g, err := Parse(`{"steps": [{"key": "m1s1", "objectives": ["Define x"], "bloom": "remember", "narrative": "hook"}]}`)
	require.NoError(t, err)
	require.Len(t, g, 1)
	assert.Equal(t, "m1s1", g[0].StepKey)
	assert.Equal(t, []string{"Define x"}, g[0].LearningObjectives)

	_, err = Parse(`"just a string"`)
	assert.Error(t, err)
}

func TestMeasurable(t *testing.T) {
	assert.True(t, Measurable("Explain Newton's laws"))
	assert.True(t, Measurable("to calculate momentum"))
	assert.True(t, Measurable("Be able to design a circuit"))
	assert.False(t, Measurable("Understand entropy"))
	assert.False(t, Measurable(""))
}
