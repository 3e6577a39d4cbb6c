package model

// curriculumBySection maps the school's section names to the curriculum
// they belong to. The dashboard auto-resolves the curriculum from the
// section when a create request omits it.
var curriculumBySection = map[string]string{
	"Harvey":   "LSHS",
	"Mendel":   "LSHS",
	"Darwin":   "LSHS",
	"Faraday":  "LSHS",
	"Pasteur":  "LSHS",
	"Linnaeus": "LSHS",
}

// CurriculumForSection returns the curriculum a section belongs to,
// or "" when the section is unknown.
func CurriculumForSection(section string) string {
	return curriculumBySection[section]
}
