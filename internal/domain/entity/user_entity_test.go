package entity

import (
	"errors"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() UserInput {
	return UserInput{
		Username:      "ana_silva",
		Email:         "ana@example.com",
		Password:      "segredo123",
		FullName:      "Ana Silva",
		BirthDate:     "1995-03-15",
		Address:       Address{PostalCode: "01310-100", Street: "Avenida Paulista", Number: "1000", City: "São Paulo", State: "SP"},
		Styles:        []string{"elegante"},
		AcceptedTerms: true,
	}
}

func TestNewUser_AppliesDefaults(t *testing.T) {
	u := NewUser(UserInput{Username: " bia "})

	assert.True(t, strings.HasPrefix(u.ID, "user_"))
	assert.Len(t, u.ID, len("user_")+32)
	assert.Equal(t, "bia", u.Username)
	assert.Equal(t, DefaultFavoriteColor, u.FavoriteColor)
	assert.Equal(t, Privacy{true, true, true, true}, u.Privacy)
	assert.Equal(t, Notifications{true, true, true, true}, u.Notifications)
	assert.False(t, u.Newsletter)
	assert.NotNil(t, u.Styles)
	assert.NotNil(t, u.FavoriteBrands)
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.UpdatedAt.IsZero())
}

func TestNewUser_ExplicitFalseFlagsSurvive(t *testing.T) {
	no := false
	u := NewUser(UserInput{
		Privacy:       PrivacyInput{ShowSocial: &no},
		Notifications: NotificationsInput{Like: &no},
	})

	assert.False(t, u.Privacy.ShowSocial)
	assert.True(t, u.Privacy.PublicProfile)
	assert.False(t, u.Notifications.Like)
	assert.True(t, u.Notifications.Comment)
}

func TestNewUser_KeepsGivenIdentity(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := NewUser(UserInput{ID: "user_fixed", CreatedAt: created})

	assert.Equal(t, "user_fixed", u.ID)
	assert.True(t, created.Equal(u.CreatedAt))
}

func TestAgeAt_CompletedYears(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth string
		want  int
	}{
		{"exact anniversary", "2005-06-10", 20},
		{"one day before anniversary", "2005-06-11", 19},
		{"earlier month", "2005-01-31", 20},
		{"later month", "2005-12-01", 19},
		{"missing", "", 0},
		{"garbage", "10/06/2005", 0},
		{"timestamp suffix", "2005-06-10T00:00:00Z", 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{BirthDate: tc.birth}
			assert.Equal(t, tc.want, u.AgeAt(now))
			assert.Equal(t, tc.want, u.AgeAt(now), "age is idempotent")
		})
	}
}

func TestUpdate_MergesAndRestamps(t *testing.T) {
	u := NewUser(validInput())
	u.Social = SocialLinks{Instagram: "@ana", Website: "https://ana.dev"}
	before := u.UpdatedAt
	createdAt := u.CreatedAt
	id := u.ID

	city := "Campinas"
	bio := "novo bio"
	site := ""
	no := false
	u.Update(UserPatch{
		Bio:            &bio,
		Address:        &AddressPatch{City: &city},
		Social:         &SocialPatch{Website: &site},
		Privacy:        &PrivacyInput{Searchable: &no},
		FavoriteBrands: []string{"Zara"},
	})

	assert.Equal(t, id, u.ID)
	assert.True(t, createdAt.Equal(u.CreatedAt))
	assert.True(t, u.UpdatedAt.After(before))
	assert.Equal(t, "novo bio", u.Bio)
	assert.Equal(t, "Campinas", u.Address.City)
	assert.Equal(t, "Avenida Paulista", u.Address.Street)
	assert.Equal(t, "@ana", u.Social.Instagram)
	assert.Empty(t, u.Social.Website)
	assert.False(t, u.Privacy.Searchable)
	assert.True(t, u.Privacy.PublicProfile)
	assert.Equal(t, []string{"Zara"}, u.FavoriteBrands)
	assert.Equal(t, []string{"elegante"}, u.Styles, "nil slice leaves list untouched")
}

func TestClone_IsDeep(t *testing.T) {
	u := NewUser(validInput())
	c := u.Clone()
	c.Styles[0] = "mudado"

	assert.Equal(t, "elegante", u.Styles[0])
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	u := NewUser(validInput())
	u.PasswordHash = "$2a$10$hash"
	u.Password = ""

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "age")
	assert.NotContains(t, doc, "password")
	assert.Equal(t, "$2a$10$hash", doc["passwordHash"])

	var in UserInput
	require.NoError(t, json.Unmarshal(raw, &in))
	back := NewUser(in)

	assert.Equal(t, u.ID, back.ID)
	assert.Equal(t, u.Username, back.Username)
	assert.Equal(t, u.Address, back.Address)
	assert.Equal(t, u.Styles, back.Styles)
	assert.Equal(t, u.Privacy, back.Privacy)
	assert.Equal(t, u.Notifications, back.Notifications)
	assert.Equal(t, u.FavoriteColor, back.FavoriteColor)
	assert.True(t, u.CreatedAt.Equal(back.CreatedAt))
	assert.Empty(t, back.ValidateAll())
}

func TestInput_RoundTrip(t *testing.T) {
	no := false
	in := validInput()
	in.Privacy.PublicProfile = &no
	u := NewUser(in)

	back := NewUser(u.Input())
	assert.Equal(t, u.Privacy, back.Privacy)
	assert.Equal(t, u.ID, back.ID)
}

func TestProjections(t *testing.T) {
	u := NewUser(validInput())
	u.PasswordHash = "hash"
	u.Social = SocialLinks{Instagram: "@ana"}

	pub := u.PublicProfile()
	require.NotNil(t, pub.Social)
	assert.Equal(t, "@ana", pub.Social.Instagram)
	assert.Equal(t, "São Paulo", pub.City)

	u.Privacy.ShowSocial = false
	assert.Nil(t, u.PublicProfile().Social)

	raw, err := json.Marshal(u.Profile())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "segredo123")
}

func TestPublicProfileAt_UsesGivenClock(t *testing.T) {
	u := NewUser(validInput())
	birth, ok := ParseBirthDate(u.BirthDate)
	require.True(t, ok)

	at := birth.AddDate(40, 0, 1)
	assert.Equal(t, 40, u.PublicProfileAt(at).Age)
	assert.Equal(t, 40, u.ProfileAt(at).Age)
	assert.Equal(t, 39, u.PublicProfileAt(birth.AddDate(40, 0, -1)).Age)
}

func TestValidateAll_OrderedMessages(t *testing.T) {
	u := NewUser(UserInput{
		FullName:       "Ana",
		Email:          "not-an-email",
		Password:       "short",
		BirthDate:      "2020-01-01",
		Address:        Address{PostalCode: "11111111"},
		FavoriteBrands: []string{"a", "b", "c", "d", "e", "f"},
	})

	msgs := u.ValidateAllAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{
		"enter first and last name",
		"invalid email format",
		"password must be at least 8 characters",
		"user must be at least 13 years old",
		"invalid postal code",
		"maximum of 5 brands allowed (6 selected)",
		"you must accept the terms of use",
	}, msgs)

	err := u.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrInvalidUser)
	assert.Len(t, verr.Messages, 7)
}

func TestValidateAll_Valid(t *testing.T) {
	u := NewUser(validInput())
	assert.Empty(t, u.ValidateAll())
	assert.NoError(t, u.Validate())
}

func TestValidateAll_StoredHashSatisfiesCredentials(t *testing.T) {
	u := NewUser(validInput())
	u.Password = ""
	u.PasswordHash = "$2a$10$abc"
	assert.Empty(t, u.ValidateAll())

	u.PasswordHash = ""
	assert.Contains(t, u.ValidateAll(), "password is required")
}

func TestBrandLimit(t *testing.T) {
	five := []string{"Zara", "Mango", "Nike", "Adidas", "Farm"}
	assert.True(t, ValidateBrands(five).Valid)
	assert.False(t, ValidateBrands(append(five, "Renner")).Valid)
	assert.False(t, ValidateBrands([]string{"Zara", "zara"}).Valid)

	u := NewUser(validInput())
	u.FavoriteBrands = five
	assert.Empty(t, u.ValidateAll())
	u.FavoriteBrands = append(five, "Renner")
	assert.NotEmpty(t, u.ValidateAll())
}
