package domain

// EntityKind identifies the variant of a design entity. The kind doubles as
// the YAML tag key of the entity block in a design spec document.
type EntityKind string

const (
	EntityProtein EntityKind = "protein"
	EntityLigand  EntityKind = "ligand"
	EntityFile    EntityKind = "file"
)

// Valid reports whether k is one of the recognized entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityProtein, EntityLigand, EntityFile:
		return true
	}
	return false
}

// GroupVisibility controls how a structure group participates in design.
type GroupVisibility string

const (
	GroupVisible GroupVisibility = "visible"
	GroupHidden  GroupVisibility = "hidden"
)

// ChainSelector references a chain (and optionally a residue range) inside a
// structure file.
type ChainSelector struct {
	ID       string `json:"id"`
	ResIndex string `json:"res_index,omitempty"`
}

// BindingChain annotates a whole chain of a structure file as binding or
// explicitly not binding. At most one of the two flags is set.
type BindingChain struct {
	ID         string `json:"id"`
	Binding    bool   `json:"binding,omitempty"`
	NotBinding bool   `json:"not_binding,omitempty"`
}

// StructureGroup selects part of a structure file into a named group.
type StructureGroup struct {
	Visibility GroupVisibility `json:"visibility"`
	ID         string          `json:"id"`
	ResIndex   string          `json:"res_index,omitempty"`
}

// Protein is a designed or fixed polypeptide chain. Sequence uses the design
// mini-language: alternating fixed-residue runs and numeric design ranges,
// e.g. "15..20AAAAAAVTTTT18PPP".
type Protein struct {
	ID                 string `json:"id"`
	Sequence           string `json:"sequence"`
	Cyclic             *bool  `json:"cyclic,omitempty"`
	BindingTypes       string `json:"binding_types,omitempty"`
	SecondaryStructure string `json:"secondary_structure,omitempty"`
}

// Ligand is a small molecule, identified by a CCD code or a SMILES string.
// ID and IDs are mutually exclusive representations of the ligand's chain
// id(s): a single id serializes as a scalar, multiple ids as a flow list.
type Ligand struct {
	ID           string   `json:"id,omitempty"`
	IDs          []string `json:"ids,omitempty"`
	CCD          string   `json:"ccd,omitempty"`
	SMILES       string   `json:"smiles,omitempty"`
	BindingTypes string   `json:"binding_types,omitempty"`
}

// StructureFile references an existing structure (PDB/CIF) used as design
// context. Path fields track the three possible origins of the file
// reference; DisplayPath picks the effective one.
type StructureFile struct {
	// Path as typed by the user, relative to the repository root.
	Path string `json:"path,omitempty"`
	// OriginalName is the client-side name of an uploaded file.
	OriginalName string `json:"original_name,omitempty"`
	// StoredName is the server-assigned filename returned by the upload API.
	StoredName string `json:"stored_name,omitempty"`

	Include       []ChainSelector  `json:"include,omitempty"`
	Exclude       []ChainSelector  `json:"exclude,omitempty"`
	BindingChains []BindingChain   `json:"binding_types_chain,omitempty"`
	GroupsAll     bool             `json:"groups_all,omitempty"`
	Groups        []StructureGroup `json:"structure_groups,omitempty"`
}

// DisplayPath returns the path to serialize for this structure file.
// Priority: server-assigned upload name, then original upload name, then the
// manually typed path.
func (f *StructureFile) DisplayPath() string {
	if f.StoredName != "" {
		return f.StoredName
	}
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.Path
}

// Entity is one designed component of an EntitySpec document. Exactly one of
// the variant pointers is non-nil, matching Kind.
type Entity struct {
	Kind    EntityKind     `json:"kind"`
	Protein *Protein       `json:"protein,omitempty"`
	Ligand  *Ligand        `json:"ligand,omitempty"`
	File    *StructureFile `json:"file,omitempty"`
}

// NewEntity creates an entity of the given kind with its variant-specific
// defaults. Returns nil for an unrecognized kind.
func NewEntity(kind EntityKind) *Entity {
	switch kind {
	case EntityProtein:
		return &Entity{Kind: kind, Protein: &Protein{ID: "A"}}
	case EntityLigand:
		return &Entity{Kind: kind, Ligand: &Ligand{ID: "L"}}
	case EntityFile:
		return &Entity{Kind: kind, File: &StructureFile{}}
	}
	return nil
}
