package frame

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yegors/atc-semframe/internal/ccg"
)

func app(fn string, args ...ccg.Term) *ccg.App { return &ccg.App{Fn: fn, Args: args} }
func lit(s string) *ccg.Lit                    { return &ccg.Lit{Text: s} }

func vectorsAroundWeatherItems() []ccg.Term {
	return []ccg.Term{
		app("_CALLSIGN_", app("_AIRCRAFT_", lit("Emirates")), app("_INTNUMBER_", lit("215"))),
		lit("fly"),
		app("_HEADING_", app("_HEADING_", lit("heading")), app("_INTNUMBER_", lit("330"))),
		app("_RADAR_", app("_RADAR_", lit("vectors")),
			app("_AROUND_", app("_AROUND_", lit("around")), app("_WEATHER_", lit("weather")))),
		app("_REPORT_", app("_REPORT_", lit("advise")),
			app("_WHEN_", app("_WHEN_", lit("when")), app("_STATUS_", lit("able")))),
		app("_DIRECTION_", app("_DIRECTION_", lit("direct")), app("_FIX_", lit("DAG"))),
	}
}

func TestFromTermsSkipsBareLiterals(t *testing.T) {
	f := FromTerms(vectorsAroundWeatherItems())
	require.Len(t, f.Children, 5, "the bare *fly* item carries no grouping")

	labels := make([]string, len(f.Children))
	for i, c := range f.Children {
		labels[i] = c.Label
	}
	require.Equal(t, []string{"CALLSIGN", "HEADING", "RADAR", "REPORT", "DIRECTION"}, labels)
}

func TestMarshalDuplicateSuffixes(t *testing.T) {
	f := FromTerms(vectorsAroundWeatherItems())
	got, err := json.Marshal(f)
	require.NoError(t, err)

	want := `{"CALLSIGN":{"AIRCRAFT":"Emirates","INTNUMBER_1":"215"},` +
		`"HEADING_1":{"HEADING_2":"heading","INTNUMBER_2":"330"},` +
		`"RADAR_1":{"RADAR_2":"vectors","AROUND_1":{"AROUND_2":"around","WEATHER":"weather"}},` +
		`"REPORT_1":{"REPORT_2":"advise","WHEN_1":{"WHEN_2":"when","STATUS":"able"}},` +
		`"DIRECTION_1":{"DIRECTION_2":"direct","FIX":"DAG"}}`
	require.Equal(t, want, string(got))

	// Still a valid JSON document.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	require.Len(t, decoded, 5)
}

func TestHoistsLowercaseWrappers(t *testing.T) {
	items := []ccg.Term{
		app("_context_",
			app("_CALLSIGN_", app("_AIRCRAFT_", lit("Delta")), app("_INTNUMBER_", lit("100"))),
			app("_to_", app("_STATUS_", lit("ready")))),
	}
	f := FromTerms(items)
	require.Len(t, f.Children, 2)
	require.Equal(t, "CALLSIGN", f.Children[0].Label)
	require.Equal(t, "STATUS", f.Children[1].Label)
	require.Equal(t, "ready", f.Children[1].Text)
}

func TestSingleLiteralGroupingCollapsesToLeaf(t *testing.T) {
	f := FromTerms([]ccg.Term{app("_WEATHER_", lit("turbulence"))})
	require.Len(t, f.Children, 1)
	require.True(t, f.Children[0].IsLeaf())
	require.Equal(t, "WEATHER", f.Children[0].Label)
	require.Equal(t, "turbulence", f.Children[0].Text)
}

func TestLeavesAndValidate(t *testing.T) {
	f := FromTerms(vectorsAroundWeatherItems())
	require.Equal(t,
		[]string{"Emirates", "215", "heading", "330", "vectors", "around", "weather", "advise", "when", "able", "direct", "DAG"},
		f.Leaves())

	norm := "Emirates 215 fly heading 330 vectors around weather advise when able direct DAG"
	require.NoError(t, f.Validate(norm))
	require.Error(t, f.Validate("completely different text"))
}
