package detection

import "github.com/InyerM/spends-assistant-web-sub000/internal/model"

// bankAliases maps a normalized institution name to the fragments bank
// notifications use for it. Institutions missing here fall back to their
// own normalized name.
var bankAliases = map[string][]string{
	"bancolombia":          {"bancolombia"},
	"nequi":                {"nequi"},
	"davivienda":           {"davivienda"},
	"daviplata":            {"daviplata"},
	"banco de bogota":      {"banco de bogota", "bco bogota"},
	"banco popular":        {"banco popular", "bco popular"},
	"banco de occidente":   {"banco de occidente", "bco occidente"},
	"av villas":            {"av villas", "avvillas"},
	"bbva":                 {"bbva"},
	"banco falabella":      {"falabella"},
	"scotiabank colpatria": {"colpatria", "scotiabank"},
	"nu":                   {"nu colombia", "nubank"},
	"nubank":               {"nu colombia", "nubank"},
	"lulo bank":            {"lulo bank", "lulo"},
	"rappipay":             {"rappipay", "rappicard"},
	"banco caja social":    {"caja social"},
	"itau":                 {"itau"},
}

// normalize folds s the same way text conditions fold bank text.
func normalize(s string) string {
	return model.FoldText(s)
}

// institutionFragments returns the raw-text fragments identifying an
// institution.
func institutionFragments(institution string) []string {
	key := normalize(institution)
	if key == "" {
		return nil
	}
	if aliases, ok := bankAliases[key]; ok {
		return aliases
	}
	return []string{key}
}
