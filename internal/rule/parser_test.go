package rule

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Forms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Rule
	}{
		{"call without args", "$foo", Call{Name: "foo"}},
		{"call with args", "$foo|a b||42", Call{Name: "foo", Args: []string{"a b", "", "42"}}},
		{"level call", "^$level|x", AccessibilityLevelCall{Name: "level", Args: []string{"x"}}},
		{"checkable call", "{$foo|arg1}", Checkable{Rule: Call{Name: "foo", Args: []string{"arg1"}}}},
		{"checkable reference", "{@location/section}", Checkable{Rule: Reference{Location: "location", Section: "section"}}},
		{"item list", "item1,item2", Multi{Rules: []Rule{Item{Code: "item1"}, Item{Code: "item2"}}}},
		{
			"checkable list",
			"{@foo/bar,$call|me}",
			Checkable{Rule: Multi{Rules: []Rule{
				Reference{Location: "foo", Section: "bar"},
				Call{Name: "call", Args: []string{"me"}},
			}}},
		},
		{
			"optional list",
			"[@foo/bar,$call|me]",
			Optional{Rule: Multi{Rules: []Rule{
				Reference{Location: "foo", Section: "bar"},
				Call{Name: "call", Args: []string{"me"}},
			}}},
		},
		{"bare reference", "@location/section", Reference{Location: "location", Section: "section"}},
		{"bare item", "item", Item{Code: "item"}},
		{"caret item", "^item", Item{Code: "^item"}},
		{"empty", "", Multi{}},
		{"empty checkable", "{}", Checkable{Rule: Multi{}}},
		{"empty optional", "[]", Optional{Rule: Multi{}}},
		{"reference with spaces", "@Kakariko Village/Well", Reference{Location: "Kakariko Village", Section: "Well"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CallWithAccessRule(t *testing.T) {
	got, err := Parse("$has_sword,{@cave/chest}")
	require.NoError(t, err)

	assert.Equal(t, Multi{Rules: []Rule{
		Call{Name: "has_sword"},
		Checkable{Rule: Reference{Location: "cave", Section: "chest"}},
	}}, got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		span  Span
		msg   string
	}{
		{"empty clause", "a,,b", Span{2, 3}, "unexpected ',', expected rule"},
		{"trailing comma", "a,", Span{2, 2}, "unexpected end of input, expected rule"},
		{"missing function name", "$|x", Span{1, 2}, "unexpected '|', expected function name"},
		{"unclosed checkable", "{a", Span{2, 2}, "unexpected end of input, expected ',' or '}'"},
		{"reference without slash", "@cave", Span{5, 5}, "unexpected end of input, expected '/'"},
		{"stray closer", "a}", Span{1, 2}, "unexpected '}', expected ',' or end of input"},
		{"slash in item", "a/b", Span{1, 2}, "unexpected '/', expected ',' or end of input"},
		{"junk after call", "$foo.bar", Span{4, 5}, "unexpected '.', expected ',' or end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			require.True(t, IsSyntaxError(err))

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			require.Len(t, se.Diagnostics, 1)
			assert.Equal(t, tt.span, se.Diagnostics[0].Span)
			assert.Equal(t, tt.msg, se.Diagnostics[0].Message)
		})
	}
}

func TestSyntaxError_Report(t *testing.T) {
	_, err := Parse("$has_sword,,bow")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)

	assert.Equal(t, "$has_sword,,bow\n           ^ unexpected ',', expected rule\n", se.Report())
	assert.Contains(t, se.Error(), "bytes 11..12")
}

func TestParse_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name  string
		input string
	}{
		{"nested_groups", "{@foo/bar,$call|me},[$hello|world,@x/y]"},
		{"level_call_and_item", "^$medallion|2,hookshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			require.NoError(t, err)

			data, err := json.MarshalIndent(r, "", "  ")
			require.NoError(t, err)
			g.Assert(t, tt.name, data)
		})
	}
}
