// Package editor implements the form-side editing model for design spec
// documents: the mutable entity list behind the dynamic form, and the
// synchronization controller that keeps the form and the hand-edited
// document text consistent.
package editor

import (
	"fmt"

	"github.com/protein-design-studio/internal/domain"
	"github.com/protein-design-studio/pkg/designspec"
)

// ChainList identifies a chain sub-list of a structure file entity.
type ChainList string

const (
	IncludeList ChainList = "include"
	ExcludeList ChainList = "exclude"
	BindingList ChainList = "binding_types_chain"
)

// EntityUpdate is a partial update shallow-merged into an entity. Nil fields
// are left untouched. Only the fields relevant to the entity's kind are
// applied.
type EntityUpdate struct {
	ID                 *string
	IDs                *[]string
	Sequence           *string
	Cyclic             *bool
	BindingTypes       *string
	SecondaryStructure *string
	CCD                *string
	SMILES             *string
	Path               *string
	OriginalName       *string
	StoredName         *string
	GroupsAll          *bool
	Groups             *[]domain.StructureGroup
}

// Session owns one design form's entity list and the index of the currently
// expanded entity. It is created empty when a design form opens and discarded
// on reset; persistence happens only at submission time through the upload
// API.
type Session struct {
	entities []domain.Entity
	focused  int
}

// NewSession creates an empty editing session with no focused entity.
func NewSession() *Session {
	return &Session{focused: -1}
}

// Entities returns the current entity list. Callers must treat it as
// read-only; all mutation goes through the session's operations.
func (s *Session) Entities() []domain.Entity {
	return s.entities
}

// Focused returns the index of the currently expanded entity, or -1.
func (s *Session) Focused() int {
	return s.focused
}

// AddEntity appends a new entity of the given kind with variant defaults,
// focuses it, and returns its position.
func (s *Session) AddEntity(kind domain.EntityKind) (int, error) {
	entity := domain.NewEntity(kind)
	if entity == nil {
		return -1, fmt.Errorf("unknown entity kind %q", kind)
	}
	s.entities = append(s.entities, *entity)
	s.focused = len(s.entities) - 1
	return s.focused, nil
}

// UpdateEntity shallow-merges update into the entity at index. Setting ccd
// clears smiles and vice versa; setting a multi-id list clears the single id
// and vice versa. A malformed sequence or per-residue annotation is rejected
// and the entity is left unchanged; clearing a field with an empty string is
// always allowed.
func (s *Session) UpdateEntity(index int, update EntityUpdate) error {
	if index < 0 || index >= len(s.entities) {
		return fmt.Errorf("entity index %d out of range", index)
	}

	entity := &s.entities[index]
	switch entity.Kind {
	case domain.EntityProtein:
		return applyProteinUpdate(entity.Protein, update)
	case domain.EntityLigand:
		return applyLigandUpdate(entity.Ligand, update)
	case domain.EntityFile:
		applyFileUpdate(entity.File, update)
	}
	return nil
}

func applyProteinUpdate(p *domain.Protein, update EntityUpdate) error {
	if update.Sequence != nil && *update.Sequence != "" {
		if err := designspec.ValidateSequence(*update.Sequence); err != nil {
			return err
		}
	}
	if update.BindingTypes != nil {
		if err := designspec.ValidateBindingTypes(*update.BindingTypes); err != nil {
			return err
		}
	}
	if update.SecondaryStructure != nil {
		if err := designspec.ValidateSecondaryStructure(*update.SecondaryStructure); err != nil {
			return err
		}
	}

	if update.ID != nil {
		p.ID = *update.ID
	}
	if update.Sequence != nil {
		p.Sequence = *update.Sequence
	}
	if update.Cyclic != nil {
		cyclic := *update.Cyclic
		p.Cyclic = &cyclic
	}
	if update.BindingTypes != nil {
		p.BindingTypes = *update.BindingTypes
	}
	if update.SecondaryStructure != nil {
		p.SecondaryStructure = *update.SecondaryStructure
	}
	return nil
}

func applyLigandUpdate(l *domain.Ligand, update EntityUpdate) error {
	if update.BindingTypes != nil {
		if err := designspec.ValidateBindingTypes(*update.BindingTypes); err != nil {
			return err
		}
	}

	if update.ID != nil {
		l.ID = *update.ID
		l.IDs = nil
	}
	if update.IDs != nil {
		l.IDs = append([]string(nil), (*update.IDs)...)
		l.ID = ""
	}
	if update.CCD != nil {
		l.CCD = *update.CCD
		if l.CCD != "" {
			l.SMILES = ""
		}
	}
	if update.SMILES != nil {
		l.SMILES = *update.SMILES
		if l.SMILES != "" {
			l.CCD = ""
		}
	}
	if update.BindingTypes != nil {
		l.BindingTypes = *update.BindingTypes
	}
	return nil
}

func applyFileUpdate(f *domain.StructureFile, update EntityUpdate) {
	if update.Path != nil {
		f.Path = *update.Path
	}
	if update.OriginalName != nil {
		f.OriginalName = *update.OriginalName
	}
	if update.StoredName != nil {
		f.StoredName = *update.StoredName
	}
	if update.GroupsAll != nil {
		f.GroupsAll = *update.GroupsAll
		if f.GroupsAll {
			f.Groups = nil
		}
	}
	if update.Groups != nil {
		f.Groups = append([]domain.StructureGroup(nil), (*update.Groups)...)
		if len(f.Groups) > 0 {
			f.GroupsAll = false
		}
	}
}

// RemoveEntity removes the entity at index and re-indexes the focused-entity
// state: cleared when it pointed at the removed entity, decremented when it
// pointed past it.
func (s *Session) RemoveEntity(index int) error {
	if index < 0 || index >= len(s.entities) {
		return fmt.Errorf("entity index %d out of range", index)
	}

	s.entities = append(s.entities[:index], s.entities[index+1:]...)
	switch {
	case s.focused == index:
		s.focused = -1
	case s.focused > index:
		s.focused--
	}
	return nil
}

// Reset discards the entity list and focus state.
func (s *Session) Reset() {
	s.entities = nil
	s.focused = -1
}

// AddChain appends a chain with the given id to one of a structure file's
// chain lists. Duplicate chain ids in the include and binding lists are
// rejected with an error; the list is left unchanged.
func (s *Session) AddChain(index int, list ChainList, id string) error {
	file, err := s.structureFile(index)
	if err != nil {
		return err
	}

	switch list {
	case IncludeList:
		if containsChain(file.Include, id) {
			return fmt.Errorf("chain %q is already in the include list", id)
		}
		file.Include = append(file.Include, domain.ChainSelector{ID: id})
	case ExcludeList:
		file.Exclude = append(file.Exclude, domain.ChainSelector{ID: id})
	case BindingList:
		for _, chain := range file.BindingChains {
			if chain.ID == id {
				return fmt.Errorf("chain %q is already in the binding list", id)
			}
		}
		file.BindingChains = append(file.BindingChains, domain.BindingChain{ID: id})
	default:
		return fmt.Errorf("unknown chain list %q", list)
	}
	return nil
}

// RemoveChain removes the chain with the given id from one of a structure
// file's chain lists.
func (s *Session) RemoveChain(index int, list ChainList, id string) error {
	file, err := s.structureFile(index)
	if err != nil {
		return err
	}

	switch list {
	case IncludeList:
		file.Include = removeChain(file.Include, id)
	case ExcludeList:
		file.Exclude = removeChain(file.Exclude, id)
	case BindingList:
		kept := file.BindingChains[:0]
		for _, chain := range file.BindingChains {
			if chain.ID != id {
				kept = append(kept, chain)
			}
		}
		file.BindingChains = kept
	default:
		return fmt.Errorf("unknown chain list %q", list)
	}
	return nil
}

// UpdateChainBinding marks a chain in the binding list as binding or as
// explicitly not binding. The two flags are mutually exclusive.
func (s *Session) UpdateChainBinding(index int, id string, binding bool) error {
	file, err := s.structureFile(index)
	if err != nil {
		return err
	}

	for i := range file.BindingChains {
		if file.BindingChains[i].ID != id {
			continue
		}
		file.BindingChains[i].Binding = binding
		file.BindingChains[i].NotBinding = !binding
		return nil
	}
	return fmt.Errorf("chain %q is not in the binding list", id)
}

func (s *Session) structureFile(index int) (*domain.StructureFile, error) {
	if index < 0 || index >= len(s.entities) {
		return nil, fmt.Errorf("entity index %d out of range", index)
	}
	entity := &s.entities[index]
	if entity.Kind != domain.EntityFile || entity.File == nil {
		return nil, fmt.Errorf("entity %d is not a structure file", index)
	}
	return entity.File, nil
}

func containsChain(selectors []domain.ChainSelector, id string) bool {
	for _, sel := range selectors {
		if sel.ID == id {
			return true
		}
	}
	return false
}

func removeChain(selectors []domain.ChainSelector, id string) []domain.ChainSelector {
	kept := selectors[:0]
	for _, sel := range selectors {
		if sel.ID != id {
			kept = append(kept, sel)
		}
	}
	return kept
}
