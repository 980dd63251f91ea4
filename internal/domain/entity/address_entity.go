package entity

import "strings"

// PostalAddress is a normalized postal code lookup result.
type PostalAddress struct {
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	IBGE         string `json:"ibge"`
	GIA          string `json:"gia"`
	DDD          string `json:"ddd"`
	SIAFI        string `json:"siafi"`
}

// State is a Brazilian federative unit.
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var brazilianStates = []State{
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AP", "Amapá"},
	{"AM", "Amazonas"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MT", "Mato Grosso"},
	{"MS", "Mato Grosso do Sul"},
	{"MG", "Minas Gerais"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PR", "Paraná"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"RJ", "Rio de Janeiro"},
	{"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"SC", "Santa Catarina"},
	{"SP", "São Paulo"},
	{"SE", "Sergipe"},
	{"TO", "Tocantins"},
}

// BrazilianStates returns a copy of the 27 federative units.
func BrazilianStates() []State {
	out := make([]State, len(brazilianStates))
	copy(out, brazilianStates)
	return out
}

// StateByCode looks a unit up case-insensitively.
func StateByCode(code string) (State, bool) {
	for _, s := range brazilianStates {
		if strings.EqualFold(s.Code, strings.TrimSpace(code)) {
			return s, true
		}
	}
	return State{}, false
}
