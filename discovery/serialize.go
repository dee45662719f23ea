// ABOUTME: Plain-text (YAML) rendering of a discovery document for export
// ABOUTME: Also derives filesystem-safe export file names from document content
package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EmptyMarker is rendered for null or empty leaf values.
const EmptyMarker = "~"

// ToText renders doc as indented YAML in section order. Every known field is
// present in the output; blank values show as EmptyMarker and empty lists as
// []. The output depends only on doc.
func ToText(doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}
	normalized, err := doc.Clone()
	if err != nil {
		return "", fmt.Errorf("failed to copy document: %w", err)
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	// JSON is YAML; decoding into a node keeps struct field order.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", fmt.Errorf("failed to build yaml tree: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return "", fmt.Errorf("unexpected yaml tree shape")
	}
	restyle(root.Content[0])

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root.Content[0]); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.String(), nil
}

// restyle turns the JSON-flavoured tree into block YAML with explicit blanks.
func restyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		if len(n.Content) == 0 {
			n.Style = yaml.FlowStyle
			return
		}
		n.Style = 0
		for _, c := range n.Content {
			restyle(c)
		}
	case yaml.ScalarNode:
		n.Style = 0
		if n.Tag == "!!null" || (n.Tag == "!!str" && strings.TrimSpace(n.Value) == "") {
			n.Tag = "!!null"
			n.Value = EmptyMarker
		}
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitize(s string) string {
	return unsafeChars.ReplaceAllString(strings.TrimSpace(s), "")
}

// FilenameFor builds discovery_<last>[_<zip>][_<state>]_<yyyymmdd>.<ext>.
// The last name falls back to "unknown" and the date to "undated".
func FilenameFor(doc *Document, ext string) string {
	last := sanitize(doc.Client.LastName)
	if last == "" {
		last = "unknown"
	}
	parts := []string{"discovery", strings.ToLower(last)}
	if zip := sanitize(doc.Client.Zip); zip != "" {
		parts = append(parts, zip)
	}
	if state := sanitize(doc.Client.State); state != "" {
		parts = append(parts, strings.ToUpper(state))
	}
	stamp := "undated"
	if !doc.Meta.CreatedAt.IsZero() {
		stamp = doc.Meta.CreatedAt.UTC().Format("20060102")
	}
	parts = append(parts, stamp)

	name := strings.Join(parts, "_")
	if ext = sanitize(strings.TrimPrefix(ext, ".")); ext != "" {
		name += "." + ext
	}
	return name
}
