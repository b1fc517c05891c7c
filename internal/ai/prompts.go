package ai

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/thywilljoshua/deckgen/internal/deck"
)

// Instruction is one fully rendered model request.
type Instruction struct {
	System string
	User   string
	Schema *genai.Schema
}

const (
	contextOpen      = "<CONTEXT>"
	contextClose     = "</CONTEXT>"
	instructionOpen  = "<INSTRUCTION>"
	instructionClose = "</INSTRUCTION>"
)

const groundedSystem = `You are a Content Extractor and Formatter. You will be given a text context and an instruction. Your entire response MUST be based *exclusively* on the provided text context.

ABSOLUTE DIRECTIVES:
1. SOURCE OF TRUTH: The provided <CONTEXT> is your one and only source of information. You are forbidden from using any external knowledge, making assumptions, or inventing details. Every piece of content you generate must be directly traceable to the <CONTEXT>.
2. USER INSTRUCTION: The <INSTRUCTION> from the user tells you *how* to process the <CONTEXT>. You must follow this instruction precisely. For example, if the instruction is "Summarize this in 3 slides," you will create a 3-slide summary using ONLY information from the <CONTEXT>.
3. OUTPUT FORMAT: You MUST format your response as valid JSON that strictly adheres to the provided JSON schema. Do not include any text, explanations, or markdown formatting outside of the JSON.
4. DOCUMENT TYPE: The final output should be structured as a %s%s.
5. STYLE: The content should reflect the style of the "%s" template which uses the "%s" font.
6. VISUALS: If you include an 'imagePrompt' or a 'chart', the subject matter or data MUST be explicitly present in the <CONTEXT>.`

const creativeSystem = `You are an expert content creator. Your task is to generate content for a professional %s based on the user's prompt, styled according to the chosen template. The template is named "%s" and uses a %s font with primary color %s.
For presentations, each slide's content should contain comprehensive and detailed information with multiple, informative bullet points.
Where appropriate, enhance slides or document sections with a relevant 'imagePrompt' or 'chart' data to visualize key information and improve engagement. Use professional and relevant visuals where they add value.
You must return valid JSON adhering to the provided schema, with no markdown formatting.`

const regenerateSystem = `You are an expert content editor. You are editing a single slide within a larger presentation about "%s". Your task is to regenerate the content for this specific slide based on the user's new instructions. Ensure the new content is detailed and comprehensive.`

const regenerateUser = `The user's new instruction for this slide is: "%s". Please regenerate the slide's title and content. The user has specifically requested that %s Provide a single valid JSON object for the slide, adhering to the provided schema, with no markdown formatting.`

const imageFraming = "A professional, high-quality image for a business presentation: "

func documentTypeName(t deck.DocumentType) string {
	if t == deck.Presentation {
		return "PowerPoint presentation"
	}
	return "Microsoft Word document"
}

func countClause(req GenerateRequest) string {
	if req.DocType != deck.Presentation {
		return ""
	}
	return fmt.Sprintf(" with exactly %d slides", req.ItemCount)
}

// GenerationInstruction renders a full generation. Grounded and creative requests use
// separate templates: with grounding the prompt becomes an instruction over the context.
func GenerationInstruction(req GenerateRequest) Instruction {
	name := documentTypeName(req.DocType)
	count := countClause(req)
	schema := deck.ResponseSchema(req.DocType)

	if strings.TrimSpace(req.Grounding) != "" {
		return Instruction{
			System: fmt.Sprintf(groundedSystem, name, count, req.Template.Name, req.Template.Font),
			User: contextOpen + "\n" + req.Grounding + "\n" + contextClose + "\n\n" +
				instructionOpen + "\n" + req.Prompt + "\n" + instructionClose,
			Schema: schema,
		}
	}
	return Instruction{
		System: fmt.Sprintf(creativeSystem, name, req.Template.Name, req.Template.Font, req.Template.Colors.Primary),
		User:   fmt.Sprintf("Create a %s%s about: \"%s\"", name, count, req.Prompt),
		Schema: schema,
	}
}

func mediaClause(m deck.MediaRequest) string {
	switch m {
	case deck.MediaImage:
		return "you MUST include a relevant image by providing an 'imagePrompt'. Do not include a chart."
	case deck.MediaChart:
		return "you MUST include a relevant data chart by providing 'chart' data. Do not include an image."
	}
	return "you do not include any image or chart."
}

func RegenerationInstruction(req RegenerateRequest) Instruction {
	return Instruction{
		System: fmt.Sprintf(regenerateSystem, req.TopicPrompt),
		User:   fmt.Sprintf(regenerateUser, req.Instruction, mediaClause(req.Media)),
		Schema: deck.SlideSchema(),
	}
}

// FramedImagePrompt wraps a descriptive prompt in the fixed business framing.
func FramedImagePrompt(prompt string) string {
	return imageFraming + strings.TrimSpace(prompt)
}
