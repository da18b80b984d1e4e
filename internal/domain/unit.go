package domain

import "strings"

// Unit is a legacy reference entity. PK: residency_id, SK: unit_id.
type Unit struct {
	UnitID      string `json:"id" dynamodbav:"unit_id"`
	ResidencyID string `json:"residencyId" dynamodbav:"residency_id"`
	Number      string `json:"number" dynamodbav:"number"`
	BlockID     string `json:"blockId" dynamodbav:"block_id"`
}

// Block is a legacy reference entity. PK: residency_id, SK: block_id.
type Block struct {
	BlockID     string `json:"id" dynamodbav:"block_id"`
	ResidencyID string `json:"residencyId" dynamodbav:"residency_id"`
	Name        string `json:"name" dynamodbav:"name"`
}

// UnitRef is the legacy way of addressing a unit.
type UnitRef struct {
	Number    string
	BlockName string
}

func (u UnitRef) IsZero() bool {
	return strings.TrimSpace(u.Number) == "" && strings.TrimSpace(u.BlockName) == ""
}

// Matches compares two legacy references after normalization. Both sides must
// carry a unit number and a block; a partial reference never matches.
func (u UnitRef) Matches(other UnitRef) bool {
	n1, n2 := normalizeUnitNumber(u.Number), normalizeUnitNumber(other.Number)
	b1, b2 := NormalizeBlockName(u.BlockName), NormalizeBlockName(other.BlockName)
	if n1 == "" || b1 == "" {
		return false
	}
	return n1 == n2 && b1 == b2
}

var blockTypeWords = []string{"block", "tower", "wing"}

const blockSeparators = " -_.:#"

// NormalizeBlockName folds case, strips a leading type word ("Block A",
// "TOWER-b", "wing: c") and trims. The type word is only stripped when it is
// followed by a separator or by a short suffix ("BlockA"), so names such as
// "Blockhouse" survive.
func NormalizeBlockName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, w := range blockTypeWords {
		if !strings.HasPrefix(s, w) {
			continue
		}
		rest := s[len(w):]
		switch {
		case rest == "":
		case strings.ContainsRune(blockSeparators, rune(rest[0])):
			s = strings.TrimLeft(rest, blockSeparators)
		case len(rest) <= 2:
			s = rest
		}
		break
	}
	return strings.Join(strings.Fields(s), " ")
}

func normalizeUnitNumber(n string) string {
	return strings.ToLower(strings.TrimSpace(n))
}
