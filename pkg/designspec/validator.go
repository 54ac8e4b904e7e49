package designspec

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationResult is the immutable outcome of one validation pass. Errors
// block saving a document as valid; warnings are advisory only. A result is
// always built wholesale, never updated in place.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate parses documentText and validates it against the schema registry.
// The document shape is classified first: a top-level "entities" key routes
// to entity spec rules, anything else to the legacy template configuration
// rules. Field-level validation is exhaustive; every offending field is
// reported in one pass.
func Validate(documentText string) ValidationResult {
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(documentText), &parsed); err != nil {
		return ValidationResult{
			Errors:   []string{fmt.Sprintf("failed to parse document: %v", err)},
			Warnings: []string{},
		}
	}

	doc, ok := parsed.(map[string]interface{})
	if !ok {
		return ValidationResult{
			Errors:   []string{"invalid format: document must be a mapping of top-level keys"},
			Warnings: []string{},
		}
	}

	errs := []string{}
	warns := []string{}
	if _, hasEntities := doc["entities"]; hasEntities {
		errs, warns = validateEntitySpec(doc)
	} else {
		errs = validateLegacy(doc)
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
	}
}

func validateEntitySpec(doc map[string]interface{}) (errs, warns []string) {
	errs = []string{}
	warns = []string{}

	var extra []string
	for key := range doc {
		if !isEntityTopLevelKey(key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		errs = append(errs, fmt.Sprintf("invalid top-level keys: %s (allowed: %s)",
			strings.Join(extra, ", "), strings.Join(entityTopLevelKeys, ", ")))
	}

	// A null entities value is the serializer's placeholder for an empty
	// design and is accepted as-is.
	if raw, ok := doc["entities"]; ok && raw != nil {
		list, isList := raw.([]interface{})
		if !isList {
			errs = append(errs, "'entities' must be a list")
		} else {
			for i, element := range list {
				block, isMap := element.(map[string]interface{})
				if !isMap {
					errs = append(errs, fmt.Sprintf(
						"entity %d must be a mapping containing one of: %s",
						i, strings.Join(entityTypeTags, ", ")))
					continue
				}
				tags := 0
				for key := range block {
					if isEntityTypeTag(key) {
						tags++
					}
				}
				switch {
				case tags == 0:
					errs = append(errs, fmt.Sprintf(
						"entity %d has no recognized type (expected one of: %s)",
						i, strings.Join(entityTypeTags, ", ")))
				case tags > 1:
					errs = append(errs, fmt.Sprintf(
						"entity %d has more than one type block (expected exactly one of: %s)",
						i, strings.Join(entityTypeTags, ", ")))
				default:
					warns = append(warns, entityAnnotationWarnings(i, block)...)
				}
			}
		}
	}

	if raw, ok := doc["constraints"]; ok && raw != nil {
		if _, isList := raw.([]interface{}); !isList {
			errs = append(errs, "'constraints' must be a list")
		}
	}

	return errs, warns
}

// entityAnnotationWarnings checks a protein's sequence mini-language and the
// per-residue annotation strings of proteins and ligands. Problems here are
// advisory so a half-typed sequence never blocks saving a draft, but
// surfacing them early saves a failed pipeline check later.
func entityAnnotationWarnings(index int, block map[string]interface{}) []string {
	var warns []string

	if protein, ok := block["protein"].(map[string]interface{}); ok {
		if seq, ok := protein["sequence"].(string); ok && seq != "" {
			if err := ValidateSequence(seq); err != nil {
				warns = append(warns, fmt.Sprintf("entity %d sequence: %v", index, err))
			}
		}
		if bt, ok := protein["binding_types"].(string); ok && bt != "" {
			if err := ValidateBindingTypes(bt); err != nil {
				warns = append(warns, fmt.Sprintf("entity %d: %v", index, err))
			}
		}
		if ss, ok := protein["secondary_structure"].(string); ok && ss != "" {
			if err := ValidateSecondaryStructure(ss); err != nil {
				warns = append(warns, fmt.Sprintf("entity %d: %v", index, err))
			}
		}
	}

	if ligand, ok := block["ligand"].(map[string]interface{}); ok {
		if bt, ok := ligand["binding_types"].(string); ok && bt != "" {
			if err := ValidateBindingTypes(bt); err != nil {
				warns = append(warns, fmt.Sprintf("entity %d: %v", index, err))
			}
		}
	}

	return warns
}

func validateLegacy(doc map[string]interface{}) []string {
	errs := []string{}

	var extra []string
	for key := range doc {
		if _, ok := legacySection(key); !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		errs = append(errs, fmt.Sprintf("invalid top-level sections: %s (allowed: %s)",
			strings.Join(extra, ", "), strings.Join(LegacySectionNames(), ", ")))
	}

	var missing []string
	for _, section := range legacySections {
		if !section.Required {
			continue
		}
		if _, ok := doc[section.Name]; !ok {
			missing = append(missing, section.Name)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing required sections: %s", strings.Join(missing, ", ")))
	}

	for _, section := range legacySections {
		raw, present := doc[section.Name]
		if !present {
			continue
		}
		fields, isMap := raw.(map[string]interface{})
		if !isMap {
			errs = append(errs, fmt.Sprintf("section '%s' must be a mapping of fields", section.Name))
			continue
		}
		errs = append(errs, validateSection(section, fields)...)
	}

	return errs
}

func validateSection(section SectionDef, fields map[string]interface{}) []string {
	var errs []string

	var extra []string
	for key := range fields {
		if _, ok := section.Field(key); !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		errs = append(errs, fmt.Sprintf("section '%s' has unknown fields: %s",
			section.Name, strings.Join(extra, ", ")))
	}

	var missing []string
	for _, field := range section.Fields {
		if _, present := fields[field.Name]; !present && field.Required {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("section '%s' is missing required fields: %s",
			section.Name, strings.Join(missing, ", ")))
	}

	for _, field := range section.Fields {
		value, present := fields[field.Name]
		if !present {
			continue
		}
		errs = append(errs, validateField(section.Name, field, value)...)
	}

	return errs
}

func validateField(sectionName string, field FieldDef, value interface{}) []string {
	var errs []string

	if !matchesAnyType(value, field.Types) {
		errs = append(errs, fmt.Sprintf("field '%s.%s' must be of type %s",
			sectionName, field.Name, typeList(field.Types)))
		// Enum and range checks are meaningless on a mistyped value.
		return errs
	}

	if len(field.Enum) > 0 {
		if s, ok := value.(string); ok && !containsString(field.Enum, s) {
			errs = append(errs, fmt.Sprintf("field '%s.%s' must be one of: %s",
				sectionName, field.Name, strings.Join(field.Enum, ", ")))
		}
	}

	if n, ok := numericValue(value); ok {
		if field.Min != nil && n < *field.Min {
			errs = append(errs, fmt.Sprintf("field '%s.%s' must be >= %v",
				sectionName, field.Name, *field.Min))
		}
		if field.Max != nil && n > *field.Max {
			errs = append(errs, fmt.Sprintf("field '%s.%s' must be <= %v",
				sectionName, field.Name, *field.Max))
		}
	}

	return errs
}

func matchesAnyType(value interface{}, types []FieldType) bool {
	for _, t := range types {
		if matchesType(value, t) {
			return true
		}
	}
	return false
}

func matchesType(value interface{}, t FieldType) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNull:
		return value == nil
	case TypeNumber:
		_, ok := numericValue(value)
		return ok
	case TypeInteger:
		n, ok := numericValue(value)
		return ok && n == math.Trunc(n)
	}
	return false
}

func numericValue(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func typeList(types []FieldType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
