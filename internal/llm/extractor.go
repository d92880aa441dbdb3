// Package llm - extractor.go builds schema-driven structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name         string        // Schema name (e.g., "JobRequirements")
	Description  string        // Preamble describing the extraction task
	Fields       []SchemaField // Expected output fields
	Instructions []string      // Extra rules appended after the structure
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint rendered into the prompt
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "\"string\""
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	for _, rule := range schema.Instructions {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// JobRequirementsSchema returns the extraction schema for job descriptions.
// description and instructions come from the prompt templates so they can be tuned without code changes.
func JobRequirementsSchema(description string, instructions []string) ExtractionSchema {
	return ExtractionSchema{
		Name:         "JobRequirements",
		Description:  description,
		Instructions: instructions,
		Fields: []SchemaField{
			{
				Name:        "jobTitle",
				Type:        "\"string\"",
				Description: "Job title as written in the posting",
				Required:    true,
			},
			{
				Name:        "companySummary",
				Type:        "\"string\"",
				Description: "One or two sentences about the company and team",
				Required:    false,
			},
			{
				Name: "jobRequirements",
				Type: `[{"requirement": "string", "importance": "absolute|critical|high|medium|low", ` +
					`"category": "education_degree|education_field|years_experience|role_title|technical_skill|soft_skill|domain_knowledge", ` +
					`"minimumYears": number, "specificRole": "string", ` +
					`"minimumDegreeLevel": "Diploma|Associate|Bachelor's|Master's|PhD", "requiredField": "string"}]`,
				Description: "One atomic requirement per entry; optional fields only when they apply",
				Required:    true,
			},
			{
				Name:        "allKeywords",
				Type:        "[\"string\"]",
				Description: "Flat list of skills, tools and domain terms a resume should mention",
				Required:    true,
			},
		},
	}
}
