package payload

// ResponseFormat constrains the shape of the model output.
type ResponseFormat struct {
	// One of "text", "json_object", "json_schema".
	Type string

	// Schema for the "json_schema" type.
	JsonSchema map[string]any
}
