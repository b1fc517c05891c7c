package deck_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/thywilljoshua/deckgen/internal/deck"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		in      string
		want    deck.DocumentType
		wantErr bool
	}{
		{"presentation", deck.Presentation, false},
		{"DOCUMENT", deck.Document, false},
		{" doc ", deck.Document, false},
		{"spreadsheet", "", true},
	}
	for _, tt := range tests {
		got, err := deck.ParseDocumentType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCheckMedia(t *testing.T) {
	chart := &deck.Chart{Type: deck.ChartBar, Labels: []string{"a"}, Datasets: []deck.Dataset{{Label: "x", Data: []float64{1}}}}
	plain := deck.Item{Title: "t"}
	withImage := deck.Item{Title: "t", ImagePrompt: "a photo"}
	withChart := deck.Item{Title: "t", Chart: chart}
	both := deck.Item{Title: "t", ImagePrompt: "a photo", Chart: chart}

	tests := []struct {
		name string
		item deck.Item
		req  deck.MediaRequest
		ok   bool
	}{
		{"none/plain", plain, deck.MediaNone, true},
		{"none/image", withImage, deck.MediaNone, false},
		{"none/chart", withChart, deck.MediaNone, false},
		{"image/image", withImage, deck.MediaImage, true},
		{"image/plain", plain, deck.MediaImage, false},
		{"image/both", both, deck.MediaImage, false},
		{"chart/chart", withChart, deck.MediaChart, true},
		{"chart/image", withImage, deck.MediaChart, false},
		{"chart/both", both, deck.MediaChart, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := deck.CheckMedia(tt.item, tt.req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, deck.ErrMediaConstraint)
			}
		})
	}
}

func TestCheckMedia_BlankPromptIsNoImage(t *testing.T) {
	assert.NoError(t, deck.CheckMedia(deck.Item{ImagePrompt: "   "}, deck.MediaNone))
}

func TestValidate(t *testing.T) {
	ok := []deck.Item{
		{Title: "a"},
		{Title: "b", Chart: &deck.Chart{Type: deck.ChartPie, Labels: []string{"x", "y"}, Datasets: []deck.Dataset{{Label: "s", Data: []float64{1}}}}},
	}
	assert.NoError(t, deck.Validate(ok))

	badType := []deck.Item{{Title: "a", Chart: &deck.Chart{Type: "donut", Datasets: []deck.Dataset{{Label: "s"}}}}}
	err := deck.Validate(badType)
	assert.ErrorIs(t, err, deck.ErrInvalidChart)
	assert.Contains(t, err.Error(), "item 0")

	noData := []deck.Item{{}, {Chart: &deck.Chart{Type: deck.ChartLine}}}
	err = deck.Validate(noData)
	assert.ErrorIs(t, err, deck.ErrInvalidChart)
	assert.Contains(t, err.Error(), "item 1")
}

func TestChartPoints(t *testing.T) {
	var nilChart *deck.Chart
	assert.Equal(t, 0, nilChart.Points())

	c := &deck.Chart{
		Type:   deck.ChartBar,
		Labels: []string{"a", "b", "c"},
		Datasets: []deck.Dataset{
			{Label: "x", Data: []float64{1, 2, 3, 4}},
			{Label: "y", Data: []float64{1, 2}},
		},
	}
	assert.Equal(t, 2, c.Points())
}

func TestNormalize(t *testing.T) {
	items := deck.Normalize([]deck.Item{{Title: "a", ImagePrompt: "  sunset  "}})
	require.NotNil(t, items[0].Content)
	assert.Empty(t, items[0].Content)
	assert.Equal(t, "sunset", items[0].ImagePrompt)
}

func TestItemJSONRoundTripNullableFields(t *testing.T) {
	var it deck.Item
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","content":["a"],"imagePrompt":null,"chart":null}`), &it))
	assert.False(t, it.WantsImage())
	assert.False(t, it.HasChart())
}

func TestDefaultMediaRequest(t *testing.T) {
	assert.Equal(t, deck.MediaImage, deck.DefaultMediaRequest(deck.Item{ImagePrompt: "x", Chart: &deck.Chart{}}))
	assert.Equal(t, deck.MediaChart, deck.DefaultMediaRequest(deck.Item{Chart: &deck.Chart{}}))
	assert.Equal(t, deck.MediaNone, deck.DefaultMediaRequest(deck.Item{}))
}

func TestDefaultInstruction(t *testing.T) {
	got := deck.DefaultInstruction(deck.Item{Title: "Costs", Content: []string{"cheap", "cheaper"}})
	assert.Equal(t, "Costs\n\ncheap\n- cheaper", got)
}

func TestValidateSlideCount(t *testing.T) {
	assert.NoError(t, deck.ValidateSlideCount(1))
	assert.NoError(t, deck.ValidateSlideCount(25))
	assert.Error(t, deck.ValidateSlideCount(0))
	assert.Error(t, deck.ValidateSlideCount(26))
}

func TestCatalog(t *testing.T) {
	tpls := deck.Templates()
	require.Len(t, tpls, 7)
	assert.Equal(t, "corporate-blue", deck.DefaultTemplate().ID)

	academic, ok := deck.LookupTemplate("ACADEMIC")
	require.True(t, ok)
	assert.Equal(t, "Merriweather", academic.Font)
	assert.Equal(t, "#2C3E50", academic.Colors.Primary)
	assert.True(t, deck.Serif(academic.Font))

	_, ok = deck.LookupTemplate("neon")
	assert.False(t, ok)

	f, ok := deck.LookupFont("playfair display")
	require.True(t, ok)
	assert.Equal(t, "Playfair Display", f)
	assert.Len(t, deck.Fonts(), 9)

	assert.Equal(t, "Lato", academic.WithFont("Lato").Font)
	assert.Equal(t, "Merriweather", academic.WithFont("").Font)
}

func TestResponseSchema(t *testing.T) {
	p := deck.ResponseSchema(deck.Presentation)
	assert.Equal(t, genai.TypeArray, p.Type)
	require.NotNil(t, p.Items)
	assert.Contains(t, p.Items.Properties, "notes")
	assert.ElementsMatch(t, []string{"title", "content"}, p.Items.Required)

	d := deck.ResponseSchema(deck.Document)
	assert.NotContains(t, d.Items.Properties, "notes")
	assert.Equal(t, []string{"bar", "line", "pie"}, d.Items.Properties["chart"].Properties["type"].Enum)
}

func TestJSONSchema(t *testing.T) {
	docType := deck.Document
	b, err := json.Marshal(deck.JSONSchema(&docType))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "array", doc["type"])
	items := doc["items"].(map[string]any)
	props := items["properties"].(map[string]any)
	assert.Contains(t, props, "title")
	assert.Contains(t, props, "chart")
	assert.NotContains(t, props, "notes")
	assert.ElementsMatch(t, []any{"title", "content"}, items["required"])

	slide := deck.JSONSchema(nil)
	_, ok := slide.Properties.Get("notes")
	assert.True(t, ok)
	assert.Equal(t, "Slide", slide.Title)
}
