package localstore

import "github.com/oksasatya/dresscode/internal/domain/entity"

// ExamplePassword is the password given to the seeded example users.
const ExamplePassword = "Dresscode2024"

// ExampleUsers returns the two illustrative records saved into an empty store.
func ExampleUsers() []entity.UserInput {
	yes := true
	return []entity.UserInput{
		{
			Username:  "fashionista_sp",
			Email:     "ana.silva@email.com",
			Password:  ExamplePassword,
			FullName:  "Ana Silva",
			BirthDate: "1995-03-15",
			Address: entity.Address{
				PostalCode: "01310-100",
				Street:     "Avenida Paulista",
				Number:     "1000",
				City:       "São Paulo",
				State:      "SP",
			},
			Styles:         []string{"elegante", "minimalista"},
			FavoriteBrands: []string{"Zara", "Mango"},
			Privacy:        entity.PrivacyInput{PublicProfile: &yes},
			AcceptedTerms:  true,
		},
		{
			Username:  "street_style_rj",
			Email:     "carlos.santos@email.com",
			Password:  ExamplePassword,
			FullName:  "Carlos Santos",
			BirthDate: "1992-08-22",
			Address: entity.Address{
				PostalCode: "22070-900",
				Street:     "Avenida Atlântica",
				Number:     "500",
				City:       "Rio de Janeiro",
				State:      "RJ",
			},
			Styles:         []string{"streetwear", "casual"},
			FavoriteBrands: []string{"Nike", "Adidas", "Supreme"},
			Privacy:        entity.PrivacyInput{PublicProfile: &yes},
			AcceptedTerms:  true,
		},
	}
}
