package designspec

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Sanitize projects documentText down to the top-level keys declared in the
// schema registry for its shape and re-serializes it with stable formatting.
// Comments are not preserved; this is lossy by design. If the document does
// not parse, or does not parse to a mapping, the input is returned unchanged.
func Sanitize(documentText string) string {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(documentText), &root); err != nil {
		return documentText
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return documentText
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return documentText
	}

	allowed := allowedTopLevelKeys(mapping)
	kept := make([]*yaml.Node, 0, len(mapping.Content))
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if !allowed[key.Value] {
			continue
		}
		kept = append(kept, normalize(key), normalize(value))
	}
	mapping.Content = kept

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return documentText
	}
	if err := enc.Close(); err != nil {
		return documentText
	}
	return buf.String()
}

// CleanResult is the outcome of ValidateAndClean.
type CleanResult struct {
	Content string   `json:"content"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateAndClean returns documentText verbatim when it validates; a valid
// document is never silently rewritten. Otherwise it returns the sanitized
// document with a single advisory error. Sanitized output is best-effort
// recovery, not confirmed equivalence to user intent.
func ValidateAndClean(documentText string) CleanResult {
	if result := Validate(documentText); result.IsValid {
		return CleanResult{Content: documentText, IsValid: true, Errors: []string{}}
	}
	return CleanResult{
		Content: Sanitize(documentText),
		IsValid: true,
		Errors: []string{
			"document was reduced to its schema-recognized fields; comments and formatting may have been lost",
		},
	}
}

// allowedTopLevelKeys selects the allowed-key set for the shape the mapping
// classifies as: entity spec keys when an "entities" key is present, legacy
// section names otherwise.
func allowedTopLevelKeys(mapping *yaml.Node) map[string]bool {
	isEntitySpec := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "entities" {
			isEntitySpec = true
			break
		}
	}

	allowed := make(map[string]bool)
	if isEntitySpec {
		for _, key := range entityTopLevelKeys {
			allowed[key] = true
		}
	} else {
		for _, name := range LegacySectionNames() {
			allowed[name] = true
		}
	}
	return allowed
}

// normalize returns a copy of node with comments dropped, anchors cleared,
// and aliases resolved to their targets, so the sanitized output carries no
// formatting artifacts and no reference reuse.
func normalize(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return normalize(node.Alias)
	}
	out := &yaml.Node{
		Kind:  node.Kind,
		Tag:   node.Tag,
		Value: node.Value,
		Style: 0,
	}
	for _, child := range node.Content {
		out.Content = append(out.Content, normalize(child))
	}
	return out
}
