package domain

// ISO 20275 entity legal form codes seen most often in supplier lists.
var legalFormNames = map[string]string{
	"2HBR": "Gesellschaft mit beschränkter Haftung (GmbH)",
	"6QQB": "Aktiengesellschaft (AG)",
	"H0PO": "Private Limited Company (Ltd)",
	"8888": "Other legal form",
}

// LegalFormName maps a legal form code to its name; unmapped codes pass through verbatim.
func LegalFormName(code string) string {
	if name, ok := legalFormNames[code]; ok {
		return name
	}
	return code
}
