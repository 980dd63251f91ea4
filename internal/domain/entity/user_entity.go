package entity

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	// DefaultFavoriteColor is applied when a record carries no colour.
	DefaultFavoriteColor = "#8B5CF6"
	// MaxFavoriteBrands caps the ordered brand list.
	MaxFavoriteBrands = 5
	// BirthDateLayout is the ISO calendar date used for birth dates.
	BirthDateLayout = "2006-01-02"
)

// Address is the postal address value object of a user.
type Address struct {
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type SocialLinks struct {
	Instagram string `json:"instagram"`
	TikTok    string `json:"tiktok"`
	Pinterest string `json:"pinterest"`
	Website   string `json:"website"`
}

func (s SocialLinks) IsZero() bool {
	return s == SocialLinks{}
}

type Privacy struct {
	PublicProfile       bool `json:"publicProfile"`
	ShowSocial          bool `json:"showSocial"`
	AppearInSuggestions bool `json:"appearInSuggestions"`
	Searchable          bool `json:"searchable"`
}

type Notifications struct {
	Email   bool `json:"email"`
	Follow  bool `json:"follow"`
	Like    bool `json:"like"`
	Comment bool `json:"comment"`
}

// User is the aggregate root for the registration domain.
//
// Password only lives in memory between the wizard and the repository, which
// replaces it with a bcrypt hash in PasswordHash before anything is written.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"-"`
	PasswordHash string `json:"passwordHash,omitempty"`

	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`

	Address Address `json:"address"`

	Styles         []string `json:"styles"`
	FavoriteBrands []string `json:"favoriteBrands"`
	FavoriteColor  string   `json:"favoriteColor"`

	Social        SocialLinks   `json:"social"`
	Privacy       Privacy       `json:"privacy"`
	Notifications Notifications `json:"notifications"`

	AcceptedTerms bool `json:"acceptedTerms"`
	Newsletter    bool `json:"newsletter"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PrivacyInput carries optional flags; nil means "use the default" (true).
type PrivacyInput struct {
	PublicProfile       *bool `json:"publicProfile"`
	ShowSocial          *bool `json:"showSocial"`
	AppearInSuggestions *bool `json:"appearInSuggestions"`
	Searchable          *bool `json:"searchable"`
}

// NotificationsInput carries optional flags; nil means "use the default" (true).
type NotificationsInput struct {
	Email   *bool `json:"email"`
	Follow  *bool `json:"follow"`
	Like    *bool `json:"like"`
	Comment *bool `json:"comment"`
}

// UserInput is the construction DTO. It is also the decode target for the
// storage blob and for import documents, so unknown fields are ignored and
// missing ones fall back to the defaults applied by NewUser.
type UserInput struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordHash string `json:"passwordHash"`

	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`

	Address Address `json:"address"`

	Styles         []string `json:"styles"`
	FavoriteBrands []string `json:"favoriteBrands"`
	FavoriteColor  string   `json:"favoriteColor"`

	Social        SocialLinks        `json:"social"`
	Privacy       PrivacyInput       `json:"privacy"`
	Notifications NotificationsInput `json:"notifications"`

	AcceptedTerms bool `json:"acceptedTerms"`
	Newsletter    bool `json:"newsletter"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// NewID returns a fresh opaque user id.
func NewID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewUser builds a User from input, applying every documented default once.
func NewUser(in UserInput) *User {
	now := time.Now().UTC()
	u := &User{
		ID:           in.ID,
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		Password:     in.Password,
		PasswordHash: in.PasswordHash,

		FullName:  in.FullName,
		BirthDate: strings.TrimSpace(in.BirthDate),
		Gender:    in.Gender,
		Phone:     in.Phone,
		Bio:       in.Bio,

		Address: in.Address,

		Styles:         cloneStrings(in.Styles),
		FavoriteBrands: cloneStrings(in.FavoriteBrands),
		FavoriteColor:  in.FavoriteColor,

		Social: in.Social,
		Privacy: Privacy{
			PublicProfile:       boolOr(in.Privacy.PublicProfile, true),
			ShowSocial:          boolOr(in.Privacy.ShowSocial, true),
			AppearInSuggestions: boolOr(in.Privacy.AppearInSuggestions, true),
			Searchable:          boolOr(in.Privacy.Searchable, true),
		},
		Notifications: Notifications{
			Email:   boolOr(in.Notifications.Email, true),
			Follow:  boolOr(in.Notifications.Follow, true),
			Like:    boolOr(in.Notifications.Like, true),
			Comment: boolOr(in.Notifications.Comment, true),
		},

		AcceptedTerms: in.AcceptedTerms,
		Newsletter:    in.Newsletter,

		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.FavoriteColor == "" {
		u.FavoriteColor = DefaultFavoriteColor
	}
	if u.Styles == nil {
		u.Styles = []string{}
	}
	if u.FavoriteBrands == nil {
		u.FavoriteBrands = []string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	return u
}

// AddressPatch merges field by field; nil leaves the field untouched.
type AddressPatch struct {
	PostalCode   *string `json:"postalCode"`
	Street       *string `json:"street"`
	Number       *string `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood *string `json:"neighborhood"`
	City         *string `json:"city"`
	State        *string `json:"state"`
}

type SocialPatch struct {
	Instagram *string `json:"instagram"`
	TikTok    *string `json:"tiktok"`
	Pinterest *string `json:"pinterest"`
	Website   *string `json:"website"`
}

// UserPatch describes a profile update. Id, creation time, credentials and
// terms acceptance are deliberately absent. A nil slice leaves the list as is,
// an empty one clears it.
type UserPatch struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FullName  *string `json:"fullName"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`

	Address *AddressPatch `json:"address"`

	Styles         []string `json:"styles"`
	FavoriteBrands []string `json:"favoriteBrands"`
	FavoriteColor  *string  `json:"favoriteColor"`

	Social        *SocialPatch        `json:"social"`
	Privacy       *PrivacyInput       `json:"privacy"`
	Notifications *NotificationsInput `json:"notifications"`

	Newsletter *bool `json:"newsletter"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Update applies p and re-stamps UpdatedAt.
func (u *User) Update(p UserPatch) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	setString(&u.FullName, p.FullName)
	setString(&u.BirthDate, p.BirthDate)
	setString(&u.Gender, p.Gender)
	setString(&u.Phone, p.Phone)
	setString(&u.Bio, p.Bio)

	if a := p.Address; a != nil {
		setString(&u.Address.PostalCode, a.PostalCode)
		setString(&u.Address.Street, a.Street)
		setString(&u.Address.Number, a.Number)
		setString(&u.Address.Complement, a.Complement)
		setString(&u.Address.Neighborhood, a.Neighborhood)
		setString(&u.Address.City, a.City)
		setString(&u.Address.State, a.State)
	}

	if p.Styles != nil {
		u.Styles = cloneStrings(p.Styles)
	}
	if p.FavoriteBrands != nil {
		u.FavoriteBrands = cloneStrings(p.FavoriteBrands)
	}
	if p.FavoriteColor != nil {
		u.FavoriteColor = *p.FavoriteColor
		if u.FavoriteColor == "" {
			u.FavoriteColor = DefaultFavoriteColor
		}
	}

	if s := p.Social; s != nil {
		setString(&u.Social.Instagram, s.Instagram)
		setString(&u.Social.TikTok, s.TikTok)
		setString(&u.Social.Pinterest, s.Pinterest)
		setString(&u.Social.Website, s.Website)
	}
	if pr := p.Privacy; pr != nil {
		setBool(&u.Privacy.PublicProfile, pr.PublicProfile)
		setBool(&u.Privacy.ShowSocial, pr.ShowSocial)
		setBool(&u.Privacy.AppearInSuggestions, pr.AppearInSuggestions)
		setBool(&u.Privacy.Searchable, pr.Searchable)
	}
	if n := p.Notifications; n != nil {
		setBool(&u.Notifications.Email, n.Email)
		setBool(&u.Notifications.Follow, n.Follow)
		setBool(&u.Notifications.Like, n.Like)
		setBool(&u.Notifications.Comment, n.Comment)
	}
	setBool(&u.Newsletter, p.Newsletter)

	now := time.Now().UTC()
	if !now.After(u.UpdatedAt) {
		now = u.UpdatedAt.Add(time.Millisecond)
	}
	u.UpdatedAt = now
}

// Clone returns a deep copy safe to hand out of a cache.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Styles = cloneStrings(u.Styles)
	c.FavoriteBrands = cloneStrings(u.FavoriteBrands)
	return &c
}

// Input converts the record back to its construction DTO.
func (u *User) Input() UserInput {
	return UserInput{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Password:     u.Password,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		BirthDate:    u.BirthDate,
		Gender:       u.Gender,
		Phone:        u.Phone,
		Bio:          u.Bio,
		Address:      u.Address,

		Styles:         cloneStrings(u.Styles),
		FavoriteBrands: cloneStrings(u.FavoriteBrands),
		FavoriteColor:  u.FavoriteColor,

		Social: u.Social,
		Privacy: PrivacyInput{
			PublicProfile:       ptr(u.Privacy.PublicProfile),
			ShowSocial:          ptr(u.Privacy.ShowSocial),
			AppearInSuggestions: ptr(u.Privacy.AppearInSuggestions),
			Searchable:          ptr(u.Privacy.Searchable),
		},
		Notifications: NotificationsInput{
			Email:   ptr(u.Notifications.Email),
			Follow:  ptr(u.Notifications.Follow),
			Like:    ptr(u.Notifications.Like),
			Comment: ptr(u.Notifications.Comment),
		},
		AcceptedTerms: u.AcceptedTerms,
		Newsletter:    u.Newsletter,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// MarshalJSON adds the derived age to the stored form.
func (u User) MarshalJSON() ([]byte, error) {
	type stored User
	return json.Marshal(struct {
		stored
		Age int `json:"age"`
	}{stored(u), u.Age()})
}

// ParseBirthDate parses the ISO date, tolerating a trailing time component.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > len(BirthDateLayout) && (s[len(BirthDateLayout)] == 'T' || s[len(BirthDateLayout)] == ' ') {
		s = s[:len(BirthDateLayout)]
	}
	t, err := time.Parse(BirthDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeAt returns completed years at now; 0 when the birth date is missing or invalid.
func (u *User) AgeAt(now time.Time) int {
	birth, ok := ParseBirthDate(u.BirthDate)
	if !ok {
		return 0
	}
	return completedYears(birth, now)
}

func (u *User) Age() int {
	return u.AgeAt(time.Now())
}

func completedYears(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func ptr[T any](v T) *T { return &v }
