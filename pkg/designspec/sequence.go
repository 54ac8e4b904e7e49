package designspec

import (
	"fmt"
	"strings"
)

// The protein sequence mini-language alternates fixed-residue runs and
// numeric design regions: "15..20AAAAAAVTTTT18PPP" is a design region of 15
// to 20 residues, eleven fixed residues, a design region of exactly 18
// residues, and three fixed prolines.

// SegmentKind distinguishes the two segment variants of a parsed sequence.
type SegmentKind int

const (
	// SegmentResidues is a run of fixed residues.
	SegmentResidues SegmentKind = iota
	// SegmentDesign is a numeric design region with a residue-count range.
	SegmentDesign
)

// Segment is one parsed piece of a sequence string.
type Segment struct {
	Kind     SegmentKind
	Residues string // fixed residues, SegmentResidues only
	Min, Max int    // designed residue count bounds, SegmentDesign only
}

const aminoAcidAlphabet = "ACDEFGHIKLMNPQRSTVWYX"

const (
	bindingAlphabet            = "BNu"
	secondaryStructureAlphabet = "HEL"
)

// ParseSequence parses a sequence mini-language string into its segments.
func ParseSequence(sequence string) ([]Segment, error) {
	if sequence == "" {
		return nil, fmt.Errorf("sequence cannot be empty")
	}

	var segments []Segment
	runes := []rune(sequence)
	for i := 0; i < len(runes); {
		switch {
		case runes[i] >= '0' && runes[i] <= '9':
			start := i
			min, next := readNumber(runes, i)
			i = next
			max := min
			if i+1 < len(runes) && runes[i] == '.' && runes[i+1] == '.' {
				i += 2
				if i >= len(runes) || runes[i] < '0' || runes[i] > '9' {
					return nil, fmt.Errorf("design range at position %d is missing its upper bound", start)
				}
				max, i = readNumber(runes, i)
			}
			if min < 1 {
				return nil, fmt.Errorf("design region at position %d must cover at least one residue", start)
			}
			if max < min {
				return nil, fmt.Errorf("design range %d..%d at position %d has its bounds reversed", min, max, start)
			}
			segments = append(segments, Segment{Kind: SegmentDesign, Min: min, Max: max})

		case strings.ContainsRune(aminoAcidAlphabet, runes[i]):
			start := i
			for i < len(runes) && strings.ContainsRune(aminoAcidAlphabet, runes[i]) {
				i++
			}
			segments = append(segments, Segment{Kind: SegmentResidues, Residues: string(runes[start:i])})

		default:
			return nil, fmt.Errorf("invalid character %q at position %d (expected an amino acid letter or a design range)", runes[i], i)
		}
	}
	return segments, nil
}

func readNumber(runes []rune, i int) (int, int) {
	n := 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		n = n*10 + int(runes[i]-'0')
		i++
	}
	return n, i
}

// SequenceLength returns the minimum and maximum residue counts a parsed
// sequence can realize.
func SequenceLength(segments []Segment) (min, max int) {
	for _, seg := range segments {
		if seg.Kind == SegmentResidues {
			min += len(seg.Residues)
			max += len(seg.Residues)
			continue
		}
		min += seg.Min
		max += seg.Max
	}
	return min, max
}

// ValidateSequence checks that sequence is well-formed mini-language.
func ValidateSequence(sequence string) error {
	_, err := ParseSequence(sequence)
	return err
}

// ValidateBindingTypes checks a per-residue binding annotation string:
// B binding, N non-binding, u unspecified.
func ValidateBindingTypes(annotation string) error {
	return validateAlphabet(annotation, bindingAlphabet, "binding_types")
}

// ValidateSecondaryStructure checks a per-residue secondary structure
// annotation string: H helix, E strand, L loop.
func ValidateSecondaryStructure(annotation string) error {
	return validateAlphabet(annotation, secondaryStructureAlphabet, "secondary_structure")
}

func validateAlphabet(annotation, alphabet, name string) error {
	for i, r := range annotation {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("invalid %s code %q at position %d (allowed: %s)", name, r, i, alphabet)
		}
	}
	return nil
}
