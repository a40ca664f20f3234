package pronoun

// UnspecifiedID is the sentinel definition every new identity starts with.
const UnspecifiedID = "unspecified"

var (
	heForms     = Forms{Subject: "he", Object: "him", PossessiveDeterminer: "his", PossessivePronoun: "his", Reflexive: "himself"}
	sheForms    = Forms{Subject: "she", Object: "her", PossessiveDeterminer: "her", PossessivePronoun: "hers", Reflexive: "herself"}
	theyForms   = Forms{Subject: "they", Object: "them", PossessiveDeterminer: "their", PossessivePronoun: "theirs", Reflexive: "themself"}
	itForms     = Forms{Subject: "it", Object: "it", PossessiveDeterminer: "its", PossessivePronoun: "its", Reflexive: "itself"}
	personForms = Forms{Subject: "this person", Object: "this person", PossessiveDeterminer: "this person's", PossessivePronoun: "this person's", Reflexive: "this person"}
	nameForms   = Forms{Subject: "{{name}}", Object: "{{name}}", PossessiveDeterminer: "{{name}}'s", PossessivePronoun: "{{name}}'s", Reflexive: "{{name}}"}
)

func compat(code string) *string { return &code }

// Builtins returns a fresh copy of the seeded pronoun catalog. Compat codes
// follow the upstream registry; composite sets list the simple sets they may
// randomize among.
func Builtins() []Definition {
	return []Definition{
		{ID: UnspecifiedID, CompatCode: compat("unspecified"), DisplayName: "Unspecified", Forms: personForms},
		{ID: "heHim", CompatCode: compat("hh"), DisplayName: "he/him", Forms: heForms},
		{ID: "heIt", CompatCode: compat("hi"), DisplayName: "he/it", Forms: heForms, SubVariants: []string{"heHim", "itIts"}},
		{ID: "heShe", CompatCode: compat("hs"), DisplayName: "he/she", Forms: heForms, SubVariants: []string{"heHim", "sheHer"}},
		{ID: "heThey", CompatCode: compat("ht"), DisplayName: "he/they", Forms: heForms, SubVariants: []string{"heHim", "theyThem"}},
		{ID: "itHim", CompatCode: compat("ih"), DisplayName: "it/he", Forms: itForms, SubVariants: []string{"itIts", "heHim"}},
		{ID: "itIts", CompatCode: compat("ii"), DisplayName: "it/its", Forms: itForms},
		{ID: "itShe", CompatCode: compat("is"), DisplayName: "it/she", Forms: itForms, SubVariants: []string{"itIts", "sheHer"}},
		{ID: "itThey", CompatCode: compat("it"), DisplayName: "it/they", Forms: itForms, SubVariants: []string{"itIts", "theyThem"}},
		{ID: "sheHe", CompatCode: compat("shh"), DisplayName: "she/he", Forms: sheForms, SubVariants: []string{"sheHer", "heHim"}},
		{ID: "sheHer", CompatCode: compat("sh"), DisplayName: "she/her", Forms: sheForms},
		{ID: "sheIt", CompatCode: compat("si"), DisplayName: "she/it", Forms: sheForms, SubVariants: []string{"sheHer", "itIts"}},
		{ID: "sheThey", CompatCode: compat("st"), DisplayName: "she/they", Forms: sheForms, SubVariants: []string{"sheHer", "theyThem"}},
		{ID: "theyHe", CompatCode: compat("th"), DisplayName: "they/he", Forms: theyForms, SubVariants: []string{"theyThem", "heHim"}},
		{ID: "theyIt", CompatCode: compat("ti"), DisplayName: "they/it", Forms: theyForms, SubVariants: []string{"theyThem", "itIts"}},
		{ID: "theyShe", CompatCode: compat("ts"), DisplayName: "they/she", Forms: theyForms, SubVariants: []string{"theyThem", "sheHer"}},
		{ID: "theyThem", CompatCode: compat("tt"), DisplayName: "they/them", Forms: theyForms},
		{ID: "anyPronouns", CompatCode: compat("any"), DisplayName: "Any pronouns", Forms: theyForms, SubVariants: []string{"heHim", "sheHer", "theyThem", "itIts"}},
		{ID: "otherPronouns", CompatCode: compat("other"), DisplayName: "Other pronouns", Forms: personForms},
		{ID: "askPronouns", CompatCode: compat("ask"), DisplayName: "Ask me my pronouns", Forms: personForms},
		{ID: "avoidPronouns", CompatCode: compat("avoid"), DisplayName: "Avoid pronouns, use my name", Forms: nameForms},
	}
}
