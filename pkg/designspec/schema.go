// Package designspec implements the design configuration document core: the
// schema registry for the two accepted document shapes, the document
// validator, the document sanitizer, the entity serializer, and the protein
// sequence mini-language.
//
// A document is either an entity-based design spec (top-level "entities" /
// "constraints" keys) or a legacy template configuration (a fixed set of
// named sections of scalar fields). The two shapes are classified before any
// field-level validation and never merged.
package designspec

// FieldType is one runtime type a legacy configuration field may take.
// Integer is a number whose value has no fractional part.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeNull    FieldType = "null"
)

// FieldDef declares the accepted shape of one legacy configuration field:
// the union of runtime types it may take, whether it must be present, and
// optional enum and numeric range constraints.
type FieldDef struct {
	Name     string
	Types    []FieldType
	Required bool
	Enum     []string
	Min      *float64
	Max      *float64
}

// SectionDef declares one legacy top-level section and its fields, in their
// declared order.
type SectionDef struct {
	Name     string
	Required bool
	Fields   []FieldDef
}

// Field looks up a field declaration by name.
func (s SectionDef) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func limit(v float64) *float64 { return &v }

// Entity spec shape: allowed top-level keys and recognized entity type tags.
var (
	entityTopLevelKeys = []string{"entities", "constraints"}
	entityTypeTags     = []string{"protein", "ligand", "file"}
)

// legacySections is the schema registry for the legacy template
// configuration shape. Section and field order here is the order used in
// error messages and sanitized output.
var legacySections = []SectionDef{
	{
		Name:     "template_config",
		Required: true,
		Fields: []FieldDef{
			{Name: "protocol", Types: []FieldType{TypeString}, Required: true,
				Enum: []string{"protein-anything", "protein-small_molecule", "peptide-anything", "nanobody-anything"}},
			{Name: "num_designs", Types: []FieldType{TypeInteger}, Required: true, Min: limit(1), Max: limit(10000)},
			{Name: "budget", Types: []FieldType{TypeInteger}, Min: limit(1), Max: limit(1000)},
			{Name: "template_path", Types: []FieldType{TypeString, TypeNull}},
			{Name: "reuse", Types: []FieldType{TypeBoolean}},
		},
	},
	{
		Name: "evaluation_config",
		Fields: []FieldDef{
			{Name: "folding_model", Types: []FieldType{TypeString},
				Enum: []string{"boltz2", "alphafold3", "chai-1"}},
			{Name: "refolding_rmsd_threshold", Types: []FieldType{TypeNumber, TypeNull}, Min: limit(0)},
			{Name: "filter_biased", Types: []FieldType{TypeBoolean}},
			{Name: "inverse_fold_num_sequences", Types: []FieldType{TypeInteger}, Min: limit(1), Max: limit(64)},
		},
	},
	{
		Name: "loss_config",
		Fields: []FieldDef{
			{Name: "alpha", Types: []FieldType{TypeNumber, TypeNull}, Min: limit(0), Max: limit(1)},
			{Name: "use_potentials", Types: []FieldType{TypeBoolean}},
		},
	},
	{
		Name: "trajectory_config",
		Fields: []FieldDef{
			{Name: "steps", Types: []FieldType{TypeInteger, TypeNull}, Min: limit(1)},
			{Name: "step_scale", Types: []FieldType{TypeNumber, TypeNull}, Min: limit(0)},
			{Name: "noise_scale", Types: []FieldType{TypeNumber, TypeNull}, Min: limit(0)},
			{Name: "diffusion_batch_size", Types: []FieldType{TypeInteger, TypeNull}, Min: limit(1)},
		},
	},
}

// LegacySectionNames returns the declared legacy section names in order.
func LegacySectionNames() []string {
	names := make([]string, len(legacySections))
	for i, s := range legacySections {
		names[i] = s.Name
	}
	return names
}

// EntityTopLevelKeys returns the allowed top-level keys of an entity spec.
func EntityTopLevelKeys() []string {
	keys := make([]string, len(entityTopLevelKeys))
	copy(keys, entityTopLevelKeys)
	return keys
}

func legacySection(name string) (SectionDef, bool) {
	for _, s := range legacySections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionDef{}, false
}

func isEntityTopLevelKey(name string) bool {
	for _, k := range entityTopLevelKeys {
		if k == name {
			return true
		}
	}
	return false
}

func isEntityTypeTag(name string) bool {
	for _, t := range entityTypeTags {
		if t == name {
			return true
		}
	}
	return false
}
