package entity

import "time"

// Profile is everything about a user except credentials.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate"`
	Age       int    `json:"age"`
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

	AcceptedTerms bool      `json:"acceptedTerms"`
	Newsletter    bool      `json:"newsletter"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicProfile is what other users may see. Social links only appear when
// the owner opted to show them.
type PublicProfile struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	FullName       string       `json:"fullName"`
	Bio            string       `json:"bio"`
	Styles         []string     `json:"styles"`
	FavoriteBrands []string     `json:"favoriteBrands"`
	FavoriteColor  string       `json:"favoriteColor"`
	City           string       `json:"city"`
	State          string       `json:"state"`
	Age            int          `json:"age"`
	Social         *SocialLinks `json:"social,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (u *User) Profile() Profile { return u.ProfileAt(time.Now()) }

// ProfileAt projects the record with its age computed at now.
func (u *User) ProfileAt(now time.Time) Profile {
	return Profile{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		BirthDate:      u.BirthDate,
		Age:            u.AgeAt(now),
		Gender:         u.Gender,
		Phone:          u.Phone,
		Bio:            u.Bio,
		Address:        u.Address,
		Styles:         cloneStrings(u.Styles),
		FavoriteBrands: cloneStrings(u.FavoriteBrands),
		FavoriteColor:  u.FavoriteColor,
		Social:         u.Social,
		Privacy:        u.Privacy,
		Notifications:  u.Notifications,
		AcceptedTerms:  u.AcceptedTerms,
		Newsletter:     u.Newsletter,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (u *User) PublicProfile() PublicProfile { return u.PublicProfileAt(time.Now()) }

func (u *User) PublicProfileAt(now time.Time) PublicProfile {
	p := PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		Styles:         cloneStrings(u.Styles),
		FavoriteBrands: cloneStrings(u.FavoriteBrands),
		FavoriteColor:  u.FavoriteColor,
		City:           u.Address.City,
		State:          u.Address.State,
		Age:            u.AgeAt(now),
		CreatedAt:      u.CreatedAt,
	}
	if u.Privacy.ShowSocial {
		social := u.Social
		p.Social = &social
	}
	return p
}
