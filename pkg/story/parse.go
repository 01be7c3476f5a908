package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON or YAML document, normalizes its values and validates it.
// Input whose first non-space byte is '{' is treated as JSON.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("story document is empty")
	}

	var doc Document
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse story JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse story YAML: %w", err)
		}
	}

	doc.normalize()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UnmarshalJSON accepts either a bare string or a full line object.
func (l *Line) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = Line{Text: text}
		return nil
	}

	type alias Line
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = Line(aux)
	return nil
}

// UnmarshalYAML accepts either a scalar or a full line mapping.
func (l *Line) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = Line{Text: node.Value}
		return nil
	}

	type alias Line
	var aux alias
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*l = Line(aux)
	return nil
}

// normalize converts decoded numbers to int where they are whole, so JSON and
// YAML documents behave the same.
func (d *Document) normalize() {
	for name, v := range d.Variables {
		d.Variables[name] = normalizeValue(v)
	}
	for _, k := range d.Knots {
		if k == nil {
			continue
		}
		for i := range k.Lines {
			normalizeEffects(k.Lines[i].Effects)
		}
		for i := range k.Choices {
			normalizeEffects(k.Choices[i].Effects)
			for j := range k.Choices[i].Requires {
				k.Choices[i].Requires[j].Value = normalizeValue(k.Choices[i].Requires[j].Value)
			}
		}
	}
}

func normalizeEffects(effects []Effect) {
	for i := range effects {
		effects[i].Value = normalizeValue(effects[i].Value)
	}
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return int(n)
		}
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	}
	return v
}
