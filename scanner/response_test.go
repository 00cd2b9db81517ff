package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	provider_models "github.com/meysamhadeli/codaiscan/providers/models"
)

func TestParseIssues_Shapes(t *testing.T) {
	want := models.Issue{Type: "bug", Severity: models.SeverityHigh, File: "a.go", Line: 3, Description: "nil deref"}
	tests := []struct {
		name    string
		content string
	}{
		{"envelope", `{"issues":[{"type":"bug","severity":"high","file":"a.go","line":3,"description":"nil deref"}]}`},
		{"bare array", `[{"type":"bug","severity":"high","file":"a.go","line":3,"description":"nil deref"}]`},
		{"fenced", "```json\n{\"issues\":[{\"type\":\"bug\",\"severity\":\"high\",\"file\":\"a.go\",\"line\":3,\"description\":\"nil deref\"}]}\n```"},
		{"prose", "Here is what I found:\n{\"issues\":[{\"type\":\"Bug\",\"severity\":\"HIGH\",\"file\":\"./a.go\",\"line\":\"3\",\"description\":\" nil deref \"}]}\nHope it helps."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := parseIssues(tt.content, []string{"a.go", "b.go"})
			require.NoError(t, err)
			assert.Equal(t, []models.Issue{want}, issues)
		})
	}
}

func TestParseIssues_EmptyListIsValid(t *testing.T) {
	issues, err := parseIssues(`{"issues": []}`, nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestParseIssues_Invalid(t *testing.T) {
	for _, content := range []string{"", "no json here", `{"result": "ok"}`, "{broken"} {
		_, err := parseIssues(content, nil)
		assert.ErrorIs(t, err, provider_models.ErrResponseInvalid, content)
	}
}

func TestParseIssues_Normalization(t *testing.T) {
	content := `{"issues":[
		{"severity":"warning","line":-4,"description":"no file given"},
		{"type":"style","severity":"whatever","file":"b.go","line":2.0,"description":"odd"},
		{"type":"bug","severity":"low","file":"b.go","line":1,"description":""}
	]}`

	single, err := parseIssues(content, []string{"only.go"})
	require.NoError(t, err)
	require.Len(t, single, 2)
	assert.Equal(t, models.Issue{Type: "quality", Severity: models.SeverityMedium, File: "only.go", Line: 0, Description: "no file given"}, single[0])
	assert.Equal(t, models.SeverityMedium, single[1].Severity)
	assert.Equal(t, 2, single[1].Line)

	multi, err := parseIssues(content, []string{"a.go", "b.go"})
	require.NoError(t, err)
	assert.Empty(t, multi[0].File, "no attribution when the unit has several files")
}

func TestSortIssues(t *testing.T) {
	issues := []models.Issue{
		{File: "b.go", Line: 1, Severity: models.SeverityLow},
		{File: "a.go", Line: 9, Severity: models.SeverityLow},
		{File: "a.go", Line: 9, Severity: models.SeverityCritical},
		{File: "a.go", Line: 2, Severity: models.SeverityInfo},
	}
	sortIssues(issues)

	assert.Equal(t, []models.Issue{
		{File: "a.go", Line: 2, Severity: models.SeverityInfo},
		{File: "a.go", Line: 9, Severity: models.SeverityCritical},
		{File: "a.go", Line: 9, Severity: models.SeverityLow},
		{File: "b.go", Line: 1, Severity: models.SeverityLow},
	}, issues)
}
