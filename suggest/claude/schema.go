package claude

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ronyyyyy619/Yaadein-Final-sub001/core"
)

// ToolName is the tool Claude is required to call with its suggestions.
const ToolName = "propose_tags"

// proposeTagsTool declares one optional array of candidates per category.
func proposeTagsTool() anthropic.ToolUnionParam {
	props := make(map[string]interface{}, len(core.Categories))
	for _, c := range core.Categories {
		props[string(c)] = arrayProperty("Candidate "+string(c)+" tags.", candidateSchema(c))
	}

	tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{Properties: props}, ToolName)
	tool.OfTool.Description = anthropic.String("Record candidate tags for one family memory.")
	return tool
}

func candidateSchema(c core.Category) map[string]interface{} {
	props := map[string]interface{}{
		"name":       stringProperty("Tag name as it should appear on the memory."),
		"confidence": numberProperty("How sure you are, from 0 to 1."),
	}
	switch c {
	case core.Locations:
		props["address"] = stringProperty("Street address or area, if known.")
	case core.Events:
		props["date"] = stringProperty("Event date as YYYY-MM-DD, if known.")
	case core.Emotions:
		props["intensity"] = numberProperty("Strength of the emotion, from 0 to 1.")
	case core.Text:
		props["text"] = stringProperty("The words visible in the frame.")
	}
	return objectSchema(props, "name", "confidence")
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
		"minimum":     0,
		"maximum":     1,
	}
}

func arrayProperty(description string, items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       items,
	}
}
