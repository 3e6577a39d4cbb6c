package model

// Document store collections.
const (
	// CollectionStudents holds one gameplay document per student account,
	// keyed by the account UID.
	CollectionStudents = "students"
	// CollectionUsers holds the legacy dashboard login documents matched
	// by the /api/login surface.
	CollectionUsers = "users"
)

// DefaultCharacter returns the schema-default flat character shape.
// All cosmetic parts start unassigned; the player picks them in-game.
func DefaultCharacter() map[string]interface{} {
	return map[string]interface{}{
		"gender":    "",
		"head":      "",
		"eyesMouth": "",
		"ears":      "",
		"hair":      "",
		"torso":     "",
		"arm":       map[string]interface{}{"left": "", "right": ""},
		"hand":      map[string]interface{}{"left": "", "right": ""},
		"leg":       map[string]interface{}{"left": "", "right": ""},
		"bank":      []interface{}{},
		"mutations": []interface{}{},
	}
}

// DefaultStudentFields builds a fresh student document for a newly
// created student account. Progress and score always start at zero.
func DefaultStudentFields(uid, first, middle, last, section, curriculum string) map[string]interface{} {
	return map[string]interface{}{
		"id":            uid,
		"studentNumber": uid,
		"progress":      0,
		"score":         0,
		"name": map[string]interface{}{
			"first":  first,
			"middle": middle,
			"last":   last,
		},
		"section":           section,
		"curriculum":        curriculum,
		"character":         DefaultCharacter(),
		"mutations":         map[string]interface{}{"cured": 0, "failed": 0},
		"lastPlayedAt":      nil,
		"tutorialCompleted": false,
		"bank":              []interface{}{},
	}
}
