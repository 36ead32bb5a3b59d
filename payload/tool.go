package payload

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type ToolParamType string

const (
	ToolParamString  ToolParamType = "string"
	ToolParamNumber  ToolParamType = "number"
	ToolParamInteger ToolParamType = "integer"
	ToolParamBoolean ToolParamType = "boolean"
	ToolParamArray   ToolParamType = "array"
	ToolParamObject  ToolParamType = "object"
)

func (t ToolParamType) Valid() bool {
	switch t {
	case ToolParamString, ToolParamNumber, ToolParamInteger, ToolParamBoolean, ToolParamArray, ToolParamObject:
		return true
	}
	return false
}

type ToolParam struct {
	Name        string
	Type        ToolParamType
	Description string
	Required    bool

	// Allowed values, or nil when the parameter is unconstrained.
	Enum []string
}

// ToolOption describes one callable tool offered to the model.
type ToolOption struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ToolOptionBuilder validates a tool definition piece by piece. Build reports
// every violation found, not just the first one.
type ToolOptionBuilder struct {
	name        string
	description string
	params      []ToolParam
	violations  []error
}

func NewToolOptionBuilder() *ToolOptionBuilder {
	return &ToolOptionBuilder{}
}

func (b *ToolOptionBuilder) SetName(name string) *ToolOptionBuilder {
	b.name = name
	return b
}

func (b *ToolOptionBuilder) SetDescription(description string) *ToolOptionBuilder {
	b.description = description
	return b
}

func (b *ToolOptionBuilder) AddParam(param ToolParam) *ToolOptionBuilder {
	if param.Name == "" {
		b.violations = append(b.violations, errors.New("parameter name must not be empty"))
		return b
	}
	if !param.Type.Valid() {
		b.violations = append(b.violations, fmt.Errorf("parameter %q has unknown type %q", param.Name, param.Type))
		return b
	}
	b.params = append(b.params, param)
	return b
}

func (b *ToolOptionBuilder) Build() (ToolOption, error) {
	violations := b.violations
	if b.name == "" {
		violations = append(violations, errors.New("tool name must not be empty"))
	}
	if err := errors.Join(violations...); err != nil {
		return ToolOption{}, err
	}
	return ToolOption{Name: b.name, Description: b.description, Params: b.params}, nil
}

// ValidateToolOptions re-runs each externally supplied tool through the
// builder. A tool failing validation is dropped with a logged reason; the
// surviving tools still proceed. Returns nil when no tool survives, which is
// distinct from no tools requested.
func ValidateToolOptions(tools []ToolOption, logger *zap.SugaredLogger) []ToolOption {
	if len(tools) == 0 {
		return nil
	}
	valid := make([]ToolOption, 0, len(tools))
	for _, tool := range tools {
		builder := NewToolOptionBuilder().SetName(tool.Name).SetDescription(tool.Description)
		for _, param := range tool.Params {
			builder.AddParam(param)
		}
		built, err := builder.Build()
		if err != nil {
			logger.Errorw("Dropping invalid tool", "tool", tool.Name, "error", err)
			continue
		}
		valid = append(valid, built)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
