package permute

// Rule is a one-directional substitution, a symmetric rule set
// lists both directions as separate rules.
type Rule struct {
	From string
	To   string
}

// GujaratiRules covers the spellings the roll is most inconsistent about:
// short/long u and i matras and the three sibilants.
var GujaratiRules = []Rule{
	{From: "ુ", To: "ૂ"},
	{From: "ૂ", To: "ુ"},
	{From: "િ", To: "ી"},
	{From: "ી", To: "િ"},
	{From: "શ", To: "ષ"},
	{From: "ષ", To: "શ"},
	{From: "શ", To: "સ"},
	{From: "ષ", To: "સ"},
	{From: "સ", To: "શ"},
	{From: "સ", To: "ષ"},
}
