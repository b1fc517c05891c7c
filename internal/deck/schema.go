package deck

import (
	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// SchemaVersion identifies the item contract. Bump it when a field changes meaning.
const SchemaVersion = "1.0.0"

const (
	descImagePrompt = `A brief, descriptive prompt for a relevant, professional image. E.g., "A photo of a solar panel farm at sunset." Only add if an image would strongly enhance the content.`
	descChart       = "Data for a chart. Only include if data visualization is essential to explain the content."
	descSlideTitle  = "The title of the slide. Should be concise."
	descSlideBody   = "An array of strings, each being a detailed and informative bullet point."
	descPageTitle   = "The title or heading of this document section."
	descPageBody    = "An array of strings, each being a full paragraph."
	descNotes       = "Speaker notes for the slide."
)

func nullable() *bool { b := true; return &b }

func chartSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: descChart,
		Nullable:    nullable(),
		Properties: map[string]*genai.Schema{
			"type": {
				Type:        genai.TypeString,
				Enum:        []string{string(ChartBar), string(ChartLine), string(ChartPie)},
				Description: "The type of chart to display.",
			},
			"labels": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "The labels for the x-axis (for bar/line) or segments (for pie).",
			},
			"datasets": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"label": {Type: genai.TypeString, Description: "The label for this dataset."},
						"data": {
							Type:        genai.TypeArray,
							Items:       &genai.Schema{Type: genai.TypeNumber},
							Description: "The numerical data for this dataset.",
						},
					},
					Required: []string{"label", "data"},
				},
				Description: "The data series to be plotted on the chart.",
			},
		},
		Required: []string{"type", "labels", "datasets"},
	}
}

func baseItemSchema(titleDesc, bodyDesc string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString, Description: titleDesc},
			"content":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: bodyDesc},
			"imagePrompt": {Type: genai.TypeString, Description: descImagePrompt, Nullable: nullable()},
			"chart":       chartSchema(),
		},
		Required: []string{"title", "content"},
	}
}

// SlideSchema is the response schema for a single slide.
func SlideSchema() *genai.Schema {
	s := baseItemSchema(descSlideTitle, descSlideBody)
	s.Properties["notes"] = &genai.Schema{Type: genai.TypeString, Description: descNotes, Nullable: nullable()}
	return s
}

// PageSchema is the response schema for a single document section.
func PageSchema() *genai.Schema {
	return baseItemSchema(descPageTitle, descPageBody)
}

// ResponseSchema is the array schema requested for a full generation of t.
func ResponseSchema(t DocumentType) *genai.Schema {
	item := PageSchema()
	if t == Presentation {
		item = SlideSchema()
	}
	return &genai.Schema{Type: genai.TypeArray, Items: item}
}

// JSONSchema publishes the contract for t as JSON Schema. A nil t yields the single-slide
// shape used by regeneration.
func JSONSchema(t *DocumentType) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	item := r.Reflect(&Item{})
	item.Version = ""
	setDescription(item, "imagePrompt", descImagePrompt)
	setDescription(item, "chart", descChart)
	setDescription(item, "notes", descNotes)

	if t == nil {
		item.Version = jsonschema.Version
		item.Title = "Slide"
		item.ID = jsonschema.ID("https://deckgen.local/schema/slide/" + SchemaVersion)
		setDescription(item, "title", descSlideTitle)
		setDescription(item, "content", descSlideBody)
		return item
	}

	title := "Presentation"
	if *t == Document {
		title = "Document"
		item.Properties.Delete("notes")
		setDescription(item, "title", descPageTitle)
		setDescription(item, "content", descPageBody)
	} else {
		setDescription(item, "title", descSlideTitle)
		setDescription(item, "content", descSlideBody)
	}
	return &jsonschema.Schema{
		Version: jsonschema.Version,
		ID:      jsonschema.ID("https://deckgen.local/schema/" + string(*t) + "/" + SchemaVersion),
		Title:   title,
		Type:    "array",
		Items:   item,
	}
}

func setDescription(s *jsonschema.Schema, prop, desc string) {
	if p, ok := s.Properties.Get(prop); ok && p != nil {
		p.Description = desc
	}
}
