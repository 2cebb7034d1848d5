package rule

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FuzzParse checks that the canonical text of any parsed rule parses back to
// the same rule.
func FuzzParse(f *testing.F) {
	f.Add("")
	f.Add("lamp")
	f.Add("$foo|a b||42")
	f.Add("^$lvl|1")
	f.Add("{@foo/bar,$call|me},[$hello|world,@x/y]")
	f.Add("[{[a]}]")
	f.Add("{[a,{b,c}],d},e")
	f.Add("{{}}")
	f.Add("$f|")
	f.Add("@a,b/c")
	f.Add("^x,^")

	f.Fuzz(func(t *testing.T, text string) {
		first, err := Parse(text)
		if err != nil {
			t.Skip()
		}
		canonical := first.String()

		second, err := Parse(canonical)
		require.NoError(t, err, "canonical text %q must parse", canonical)
		assert.Equal(t, first, second)
		assert.Equal(t, canonical, second.String(), "canonical text must be stable")
	})
}

func TestRoundTrip_GeneratedRules(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		built := genRule(rng, 4)
		require.NoError(t, Validate(built))
		text := built.String()

		reparsed, err := Parse(text)
		require.NoError(t, err, "rule text %q", text)
		assert.Equal(t, flattened(built), reparsed, "rule text %q", text)
		assert.Equal(t, text, reparsed.String())
	}
}

func TestRoundTrip_NestedMultiFlattens(t *testing.T) {
	built := Multi{Rules: []Rule{
		Item{Code: "a"},
		Multi{Rules: []Rule{
			Multi{Rules: []Rule{Item{Code: "b"}}},
			Multi{},
			Checkable{Rule: Multi{Rules: []Rule{Multi{Rules: []Rule{Item{Code: "c"}, Item{Code: "d"}}}}}},
		}},
	}}
	assert.Equal(t, "a,b,{c,d}", built.String())

	reparsed, err := Parse(built.String())
	require.NoError(t, err)
	assert.Equal(t, Multi{Rules: []Rule{
		Item{Code: "a"},
		Item{Code: "b"},
		Checkable{Rule: Multi{Rules: []Rule{Item{Code: "c"}, Item{Code: "d"}}}},
	}}, reparsed)
}

var (
	genCodes    = []string{"lamp", "bombs", "moon pearl", "^", "x-1"}
	genNames    = []string{"has", "count_2", "_lvl"}
	genArgs     = []string{"", "a", "b c", "@x", "3"}
	genSections = []string{"Vault", "Top Floor", "x/y"}
)

// genRule builds a representable rule, nesting at most depth levels.
func genRule(rng *rand.Rand, depth int) Rule {
	kind := rng.IntN(8)
	if depth == 0 {
		kind = rng.IntN(4)
	}
	switch kind {
	case 0:
		return Item{Code: genCodes[rng.IntN(len(genCodes))]}
	case 1:
		return Call{Name: genNames[rng.IntN(len(genNames))], Args: genArgList(rng)}
	case 2:
		return AccessibilityLevelCall{Name: genNames[rng.IntN(len(genNames))], Args: genArgList(rng)}
	case 3:
		return Reference{Location: "Castle", Section: genSections[rng.IntN(len(genSections))]}
	case 4:
		return Checkable{Rule: genRule(rng, depth-1)}
	case 5:
		return Optional{Rule: genRule(rng, depth-1)}
	}
	var rules []Rule
	for n := rng.IntN(4); n > 0; n-- {
		rules = append(rules, genRule(rng, depth-1))
	}
	return Multi{Rules: rules}
}

func genArgList(rng *rand.Rand) []string {
	var args []string
	for n := rng.IntN(3); n > 0; n-- {
		args = append(args, genArgs[rng.IntN(len(genArgs))])
	}
	return args
}

// flattened is the shape Parse gives back for r: nested Multi lists are
// spliced into their parent and single-element lists collapse.
func flattened(r Rule) Rule {
	switch n := r.(type) {
	case Multi:
		var parts []Rule
		splice(n, &parts)
		if len(parts) == 1 {
			return parts[0]
		}
		return Multi{Rules: parts}
	case Checkable:
		return Checkable{Rule: flattened(n.Rule)}
	case Optional:
		return Optional{Rule: flattened(n.Rule)}
	}
	return r
}

func splice(m Multi, parts *[]Rule) {
	for _, r := range m.Rules {
		if inner, ok := r.(Multi); ok {
			splice(inner, parts)
			continue
		}
		*parts = append(*parts, flattened(r))
	}
}
