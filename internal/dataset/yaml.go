package dataset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func (rr *RawRange) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: size range must be a sequence", node.Line)
	}
	parts := make([]string, 0, len(node.Content))
	for _, c := range node.Content {
		parts = append(parts, c.Value)
	}
	if err := rr.set(parts); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

func (c *Cell) UnmarshalYAML(node *yaml.Node) error {
	*c = yamlCell(node)
	return nil
}

func yamlCell(node *yaml.Node) Cell {
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return Absent
	}
	return parseCell(node.Value)
}

func (r *Row) UnmarshalYAML(node *yaml.Node) error {
	*r = Row{}
	if node.Kind != yaml.SequenceNode {
		r.Shape = "not a sequence"
		return nil
	}
	if len(node.Content) < 5 {
		r.Shape = fmt.Sprintf("expected 5 elements, got %d", len(node.Content))
		return nil
	}
	r.Kind = yamlCell(node.Content[0])
	r.Bucket = yamlCell(node.Content[1])
	r.Grade = yamlCell(node.Content[2])
	r.Zone = yamlCell(node.Content[3])

	dev := node.Content[4]
	if dev.Kind != yaml.SequenceNode {
		return nil
	}
	if len(dev.Content) > 0 {
		r.Upper = yamlCell(dev.Content[0])
	}
	if len(dev.Content) > 1 {
		r.Lower = yamlCell(dev.Content[1])
	}
	return nil
}
