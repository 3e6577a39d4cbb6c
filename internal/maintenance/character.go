package maintenance

import (
	"math/rand"

	"github.com/3stan1104/GeneFlow/internal/model"
)

// partConfig describes one cosmetic slot in the character parts catalog.
// Gender-sensitive slots draw from the per-gender pools; others from
// Options. Mutations are the mutated variants a slot can carry.
type partConfig struct {
	genderSensitive bool
	options         []string
	male            []string
	female          []string
	mutations       []string
}

// characterParts is the cosmetic catalog the game client renders from.
var characterParts = map[string]partConfig{
	"head": {
		genderSensitive: true,
		male:            []string{"HE00", "HE01", "HE02"},
		female:          []string{"HE03", "HE04", "HE05"},
		mutations:       []string{"HEX0", "HEX1"},
	},
	"eyesMouth": {options: []string{"EM00", "EM01", "EM02", "EM03", "EM04"}},
	"ears": {
		options:   []string{"E00", "E01", "E02"},
		mutations: []string{"EX0"},
	},
	"hair": {
		genderSensitive: true,
		male:            []string{""},
		female:          []string{"H00", "H01", "H02", "H03"},
	},
	"torso": {
		genderSensitive: true,
		male:            []string{"T00", "T01", "T02"},
		female:          []string{"T03", "T04", "T05"},
		mutations:       []string{"TX0", "TX1"},
	},
	"armLeft":   {options: []string{"AL00", "AL01"}, mutations: []string{"ALX0"}},
	"armRight":  {options: []string{"AR00", "AR01"}, mutations: []string{"ARX0"}},
	"handLeft":  {options: []string{"HL00", "HL01"}, mutations: []string{"HLX0"}},
	"handRight": {options: []string{"HR00", "HR01"}, mutations: []string{"HRX0"}},
	"legLeft":   {options: []string{"LL00", "LL01"}, mutations: []string{"LLX0"}},
	"legRight":  {options: []string{"LR00", "LR01"}, mutations: []string{"LRX0"}},
}

// mutatableParts lists the slots eligible for random mutations, in the
// order they are considered.
var mutatableParts = []string{
	"head", "ears", "torso",
	"armLeft", "armRight", "handLeft", "handRight", "legLeft", "legRight",
}

func randomPart(rng *rand.Rand, cfg partConfig, gender string) string {
	pool := cfg.options
	if cfg.genderSensitive {
		if gender == "Female" {
			pool = cfg.female
		} else {
			pool = cfg.male
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.Intn(len(pool))]
}

// RandomCharacter generates a full character for the given gender.
// mutationChance (0-1) is rolled per mutatable slot, capped at
// maxMutations applied mutations. Only female characters get hair.
func RandomCharacter(rng *rand.Rand, gender string, mutationChance float64, maxMutations int) map[string]interface{} {
	hair := ""
	if gender == "Female" {
		hair = randomPart(rng, characterParts["hair"], gender)
	}

	character := map[string]interface{}{
		"gender":    gender,
		"head":      randomPart(rng, characterParts["head"], gender),
		"eyesMouth": randomPart(rng, characterParts["eyesMouth"], gender),
		"ears":      randomPart(rng, characterParts["ears"], gender),
		"hair":      hair,
		"torso":     randomPart(rng, characterParts["torso"], gender),
		"arm": map[string]interface{}{
			"left":  randomPart(rng, characterParts["armLeft"], gender),
			"right": randomPart(rng, characterParts["armRight"], gender),
		},
		"hand": map[string]interface{}{
			"left":  randomPart(rng, characterParts["handLeft"], gender),
			"right": randomPart(rng, characterParts["handRight"], gender),
		},
		"leg": map[string]interface{}{
			"left":  randomPart(rng, characterParts["legLeft"], gender),
			"right": randomPart(rng, characterParts["legRight"], gender),
		},
		"bank":      []interface{}{},
		"mutations": []interface{}{},
	}

	if mutationChance <= 0 {
		return character
	}

	applied := 0
	for _, partName := range mutatableParts {
		if applied >= maxMutations {
			break
		}
		if rng.Float64() >= mutationChance {
			continue
		}
		cfg := characterParts[partName]
		if len(cfg.mutations) == 0 {
			continue
		}
		mutated := cfg.mutations[rng.Intn(len(cfg.mutations))]
		applyPart(character, partName, mutated)
		applied++
	}
	return character
}

// applyPart writes a slot value, mapping catalog slot names onto the
// nested arm/hand/leg fields.
func applyPart(character map[string]interface{}, partName, value string) {
	nested := map[string][2]string{
		"armLeft":   {"arm", "left"},
		"armRight":  {"arm", "right"},
		"handLeft":  {"hand", "left"},
		"handRight": {"hand", "right"},
		"legLeft":   {"leg", "left"},
		"legRight":  {"leg", "right"},
	}
	if loc, ok := nested[partName]; ok {
		if parent, ok := character[loc[0]].(map[string]interface{}); ok {
			parent[loc[1]] = value
		}
		return
	}
	character[partName] = value
}

// NeedsCharacterMigration reports whether a document still carries the
// old nested head shape (or no usable character at all).
func NeedsCharacterMigration(data map[string]interface{}) bool {
	character, ok := data["character"].(map[string]interface{})
	if !ok {
		return true
	}
	if _, nested := character["head"].(map[string]interface{}); nested {
		return true
	}
	for _, key := range []string{"eyesMouth", "ears", "hair", "hand"} {
		if _, present := character[key]; !present {
			return true
		}
	}
	return false
}

// MigrateCharacter converts the old nested head structure
// (head: {type, eyesMouth, ears, hair}) to the flat shape, preserving
// every field that already exists. Unusable input yields the schema
// default.
func MigrateCharacter(old interface{}) map[string]interface{} {
	oldCharacter, ok := old.(map[string]interface{})
	if !ok {
		return model.DefaultCharacter()
	}

	migrated := map[string]interface{}{
		"gender":    stringOr(oldCharacter["gender"], ""),
		"mutations": sliceOr(oldCharacter["mutations"]),
		"torso":     stringOr(oldCharacter["torso"], ""),
		"arm":       pairOr(oldCharacter["arm"]),
		"hand":      pairOr(oldCharacter["hand"]),
		"leg":       pairOr(oldCharacter["leg"]),
		"bank":      sliceOr(oldCharacter["bank"]),
	}

	if head, nested := oldCharacter["head"].(map[string]interface{}); nested {
		migrated["head"] = stringOr(head["type"], "")
		migrated["eyesMouth"] = stringOr(head["eyesMouth"], "")
		migrated["ears"] = stringOr(head["ears"], "")
		migrated["hair"] = stringOr(head["hair"], "")
	} else {
		migrated["head"] = stringOr(oldCharacter["head"], "")
		migrated["eyesMouth"] = stringOr(oldCharacter["eyesMouth"], "")
		migrated["ears"] = stringOr(oldCharacter["ears"], "")
		migrated["hair"] = stringOr(oldCharacter["hair"], "")
	}

	return migrated
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func sliceOr(v interface{}) []interface{} {
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return []interface{}{}
}

func pairOr(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return map[string]interface{}{
		"left":  stringOr(m["left"], ""),
		"right": stringOr(m["right"], ""),
	}
}
