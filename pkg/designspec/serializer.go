package designspec

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/protein-design-studio/internal/domain"
)

// emptyDocument is what an empty entity list serializes to. The entities key
// is kept with a placeholder comment instead of an empty-list literal so the
// document stays inviting for manual editing.
const emptyDocument = "entities:\n  # add one or more protein, ligand or file entries here\n"

// Serialize renders the entity list into design spec document text. It is
// deterministic and pure: fields are emitted in a fixed per-variant order and
// unset fields are omitted entirely, never emitted as null or empty.
// Constraints have no entity-model representation and are never emitted.
func Serialize(entities []domain.Entity) string {
	if len(entities) == 0 {
		return emptyDocument
	}

	list := &yaml.Node{Kind: yaml.SequenceNode}
	for i := range entities {
		list.Content = append(list.Content, entityNode(&entities[i]))
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "entities", list)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		// A hand-built node tree of scalars, mappings and sequences cannot
		// fail to encode; keep the contract total regardless.
		return emptyDocument
	}
	enc.Close()
	return buf.String()
}

func entityNode(e *domain.Entity) *yaml.Node {
	block := &yaml.Node{Kind: yaml.MappingNode}
	switch e.Kind {
	case domain.EntityProtein:
		fillProtein(block, e.Protein)
	case domain.EntityLigand:
		fillLigand(block, e.Ligand)
	case domain.EntityFile:
		fillFile(block, e.File)
	}

	wrapper := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(wrapper, string(e.Kind), block)
	return wrapper
}

func fillProtein(block *yaml.Node, p *domain.Protein) {
	appendPair(block, "id", strNode(p.ID))
	appendPair(block, "sequence", strNode(p.Sequence))
	if p.Cyclic != nil {
		appendPair(block, "cyclic", boolNode(*p.Cyclic))
	}
	if p.BindingTypes != "" {
		appendPair(block, "binding_types", strNode(p.BindingTypes))
	}
	if p.SecondaryStructure != "" {
		appendPair(block, "secondary_structure", strNode(p.SecondaryStructure))
	}
}

func fillLigand(block *yaml.Node, l *domain.Ligand) {
	if len(l.IDs) > 0 {
		ids := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, id := range l.IDs {
			ids.Content = append(ids.Content, strNode(id))
		}
		appendPair(block, "id", ids)
	} else {
		appendPair(block, "id", strNode(l.ID))
	}
	if l.CCD != "" {
		appendPair(block, "ccd", strNode(l.CCD))
	}
	if l.SMILES != "" {
		appendPair(block, "smiles", strNode(l.SMILES))
	}
	if l.BindingTypes != "" {
		appendPair(block, "binding_types", strNode(l.BindingTypes))
	}
}

func fillFile(block *yaml.Node, f *domain.StructureFile) {
	appendPair(block, "path", strNode(f.DisplayPath()))
	if len(f.Include) > 0 {
		appendPair(block, "include", selectorList(f.Include))
	}
	if len(f.BindingChains) > 0 {
		appendPair(block, "binding_types", bindingChainList(f.BindingChains))
	}
	if f.GroupsAll {
		appendPair(block, "structure_groups", strNode("all"))
	} else if len(f.Groups) > 0 {
		appendPair(block, "structure_groups", groupList(f.Groups))
	}
	if len(f.Exclude) > 0 {
		appendPair(block, "exclude", selectorList(f.Exclude))
	}
}

func selectorList(selectors []domain.ChainSelector) *yaml.Node {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, sel := range selectors {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(entry, "id", strNode(sel.ID))
		if sel.ResIndex != "" {
			appendPair(entry, "res_index", strNode(sel.ResIndex))
		}
		list.Content = append(list.Content, entry)
	}
	return list
}

func bindingChainList(chains []domain.BindingChain) *yaml.Node {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, chain := range chains {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(entry, "id", strNode(chain.ID))
		if chain.Binding {
			appendPair(entry, "binding", boolNode(true))
		}
		if chain.NotBinding {
			appendPair(entry, "not_binding", boolNode(true))
		}
		list.Content = append(list.Content, entry)
	}
	return list
}

func groupList(groups []domain.StructureGroup) *yaml.Node {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, group := range groups {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(entry, "visibility", strNode(string(group.Visibility)))
		appendPair(entry, "id", strNode(group.ID))
		if group.ResIndex != "" {
			appendPair(entry, "res_index", strNode(group.ResIndex))
		}
		list.Content = append(list.Content, entry)
	}
	return list
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, strNode(key), value)
}

func strNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func boolNode(value bool) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "false"}
	if value {
		node.Value = "true"
	}
	return node
}
