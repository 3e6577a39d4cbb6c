package maintenance

import (
	"math/rand"
	"testing"
)

func TestRandomCharacterGenderRules(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		male := RandomCharacter(rng, "Male", 0, 0)
		if male["hair"] != "" {
			t.Fatalf("male characters must not get hair, got %v", male["hair"])
		}
		head := male["head"].(string)
		if head != "HE00" && head != "HE01" && head != "HE02" {
			t.Fatalf("male head drawn from the wrong pool: %v", head)
		}

		female := RandomCharacter(rng, "Female", 0, 0)
		hair := female["hair"].(string)
		if hair == "" {
			t.Fatalf("female characters always get hair")
		}
	}
}

func TestRandomCharacterMutationCap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		character := RandomCharacter(rng, "Male", 1.0, 2)
		mutated := 0
		for _, partName := range mutatableParts {
			value := lookupSlot(character, partName)
			for _, m := range characterParts[partName].mutations {
				if value == m {
					mutated++
				}
			}
		}
		if mutated > 2 {
			t.Fatalf("mutation cap exceeded: %d", mutated)
		}
	}
}

func lookupSlot(character map[string]interface{}, partName string) string {
	nested := map[string][2]string{
		"armLeft":   {"arm", "left"},
		"armRight":  {"arm", "right"},
		"handLeft":  {"hand", "left"},
		"handRight": {"hand", "right"},
		"legLeft":   {"leg", "left"},
		"legRight":  {"leg", "right"},
	}
	if loc, ok := nested[partName]; ok {
		parent := character[loc[0]].(map[string]interface{})
		return parent[loc[1]].(string)
	}
	s, _ := character[partName].(string)
	return s
}

func TestMigrateCharacterFlattensNestedHead(t *testing.T) {
	old := map[string]interface{}{
		"gender": "Female",
		"head": map[string]interface{}{
			"type":      "HE04",
			"eyesMouth": "EM01",
			"ears":      "E02",
			"hair":      "H03",
		},
		"torso":     "T04",
		"arm":       map[string]interface{}{"left": "AL00", "right": "AR01"},
		"leg":       map[string]interface{}{"left": "LL00", "right": "LR00"},
		"bank":      []interface{}{"HE03"},
		"mutations": []interface{}{"TX0"},
	}

	migrated := MigrateCharacter(old)
	if migrated["head"] != "HE04" || migrated["eyesMouth"] != "EM01" || migrated["ears"] != "E02" || migrated["hair"] != "H03" {
		t.Fatalf("nested head not flattened: %v", migrated)
	}
	if migrated["gender"] != "Female" || migrated["torso"] != "T04" {
		t.Fatalf("existing fields not preserved: %v", migrated)
	}
	bank := migrated["bank"].([]interface{})
	if len(bank) != 1 || bank[0] != "HE03" {
		t.Fatalf("bank not preserved: %v", bank)
	}
	// The old shape had no hand; migration fills an empty pair.
	hand := migrated["hand"].(map[string]interface{})
	if hand["left"] != "" || hand["right"] != "" {
		t.Fatalf("missing hand should default empty: %v", hand)
	}
}

func TestMigrateCharacterUnusableInputGetsDefault(t *testing.T) {
	migrated := MigrateCharacter("not a map")
	if migrated["gender"] != "" || migrated["head"] != "" {
		t.Fatalf("unusable input should yield the schema default: %v", migrated)
	}
}

func TestNeedsCharacterMigration(t *testing.T) {
	flat := flatCharacter()
	if NeedsCharacterMigration(map[string]interface{}{"character": flat}) {
		t.Fatalf("flat character should not need migration")
	}

	nested := map[string]interface{}{
		"character": map[string]interface{}{
			"gender": "Male",
			"head":   map[string]interface{}{"type": "HE00"},
		},
	}
	if !NeedsCharacterMigration(nested) {
		t.Fatalf("nested head should need migration")
	}

	if !NeedsCharacterMigration(map[string]interface{}{}) {
		t.Fatalf("missing character should need migration")
	}
}

// flatCharacter builds a minimal already-migrated shape.
func flatCharacter() map[string]interface{} {
	return map[string]interface{}{
		"gender":    "Male",
		"head":      "HE00",
		"eyesMouth": "EM00",
		"ears":      "E00",
		"hair":      "",
		"torso":     "T00",
		"arm":       map[string]interface{}{"left": "AL00", "right": "AR00"},
		"hand":      map[string]interface{}{"left": "HL00", "right": "HR00"},
		"leg":       map[string]interface{}{"left": "LL00", "right": "LR00"},
		"bank":      []interface{}{},
		"mutations": []interface{}{},
	}
}
