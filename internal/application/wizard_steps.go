package application

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oksasatya/dresscode/internal/domain/entity"
	"github.com/oksasatya/dresscode/pkg/validation"
)

// TotalSteps is the number of data-collection steps in the wizard.
const TotalSteps = 6

// Field names shared by the step schema, the accumulator and record assembly.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"

	FieldFullName  = "fullName"
	FieldBirthDate = "birthDate"
	FieldGender    = "gender"
	FieldPhone     = "phone"
	FieldBio       = "bio"

	FieldPostalCode   = "postalCode"
	FieldStreet       = "street"
	FieldNumber       = "number"
	FieldComplement   = "complement"
	FieldNeighborhood = "neighborhood"
	FieldCity         = "city"
	FieldState        = "state"

	FieldStyles         = "styles"
	FieldFavoriteBrands = "favoriteBrands"
	FieldFavoriteColor  = "favoriteColor"

	FieldInstagram = "instagram"
	FieldTikTok    = "tiktok"
	FieldPinterest = "pinterest"
	FieldWebsite   = "website"

	FieldPublicProfile       = "publicProfile"
	FieldShowSocial          = "showSocial"
	FieldAppearInSuggestions = "appearInSuggestions"
	FieldSearchable          = "searchable"
	FieldNotifyEmail         = "notifyEmail"
	FieldNotifyFollow        = "notifyFollow"
	FieldNotifyLike          = "notifyLike"
	FieldNotifyComment       = "notifyComment"
	FieldAcceptTerms         = "acceptTerms"
	FieldNewsletter          = "newsletter"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindUsername
	KindEmail
	KindPassword
	KindConfirmPassword
	KindFullName
	KindDate
	KindPhone
	KindURL
	KindColor
	KindList
	KindBool
)

var kindNames = map[FieldKind]string{
	KindText:            "text",
	KindUsername:        "username",
	KindEmail:           "email",
	KindPassword:        "password",
	KindConfirmPassword: "confirm_password",
	KindFullName:        "full_name",
	KindDate:            "date",
	KindPhone:           "phone",
	KindURL:             "url",
	KindColor:           "color",
	KindList:            "list",
	KindBool:            "bool",
}

func (k FieldKind) String() string { return kindNames[k] }

func (k FieldKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
}

type Step struct {
	Number int     `json:"number"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

func flag(name string, def bool) Field {
	return Field{Name: name, Kind: KindBool, Default: def}
}

var steps = []Step{
	{Number: 1, Name: "identity", Fields: []Field{
		{Name: FieldUsername, Kind: KindUsername, Required: true},
		{Name: FieldEmail, Kind: KindEmail, Required: true},
		{Name: FieldPassword, Kind: KindPassword, Required: true},
		{Name: FieldConfirmPassword, Kind: KindConfirmPassword, Required: true},
	}},
	{Number: 2, Name: "personal", Fields: []Field{
		{Name: FieldFullName, Kind: KindFullName, Required: true},
		{Name: FieldBirthDate, Kind: KindDate, Required: true},
		{Name: FieldGender, Kind: KindText},
		{Name: FieldPhone, Kind: KindPhone},
		{Name: FieldBio, Kind: KindText},
	}},
	{Number: 3, Name: "address", Fields: []Field{
		{Name: FieldPostalCode, Kind: KindText, Required: true},
		{Name: FieldStreet, Kind: KindText},
		{Name: FieldNumber, Kind: KindText, Required: true},
		{Name: FieldComplement, Kind: KindText},
		{Name: FieldNeighborhood, Kind: KindText},
		{Name: FieldCity, Kind: KindText},
		{Name: FieldState, Kind: KindText},
	}},
	{Number: 4, Name: "style", Fields: []Field{
		{Name: FieldStyles, Kind: KindList},
		{Name: FieldFavoriteBrands, Kind: KindList},
		{Name: FieldFavoriteColor, Kind: KindColor, Default: entity.DefaultFavoriteColor},
	}},
	{Number: 5, Name: "social", Fields: []Field{
		{Name: FieldInstagram, Kind: KindText},
		{Name: FieldTikTok, Kind: KindText},
		{Name: FieldPinterest, Kind: KindText},
		{Name: FieldWebsite, Kind: KindURL},
	}},
	{Number: 6, Name: "preferences", Fields: []Field{
		flag(FieldPublicProfile, true),
		flag(FieldShowSocial, true),
		flag(FieldAppearInSuggestions, true),
		flag(FieldSearchable, true),
		flag(FieldNotifyEmail, true),
		flag(FieldNotifyFollow, true),
		flag(FieldNotifyLike, true),
		flag(FieldNotifyComment, true),
		{Name: FieldAcceptTerms, Kind: KindBool, Required: true, Default: false},
		flag(FieldNewsletter, false),
	}},
}

// Steps returns a copy of the step schema.
func Steps() []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s
		out[i].Fields = append([]Field(nil), s.Fields...)
	}
	return out
}

func stepAt(n int) Step { return steps[n-1] }

// Values is the raw per-step input as decoded from JSON.
type Values map[string]any

var (
	websitePattern = regexp.MustCompile(`^https?://.+`)
	phoneDigits    = regexp.MustCompile(`\d`)
)

const (
	msgRequired        = "field is required"
	msgInvalidValue    = "invalid value"
	msgPasswordsDiffer = "passwords do not match"
	msgPhoneIncomplete = "incomplete phone number"
	msgURLScheme       = "URL must start with http:// or https://"
	msgInvalidColor    = "invalid colour, use a hex value like #8B5CF6"
	msgPostalNotFound  = "postal code invalid or not found"
	msgTermsRequired   = "you must accept the terms of use"
)

// coerce converts a decoded JSON value into the field's Go type.
func (f Field) coerce(v any) (any, bool) {
	switch f.Kind {
	case KindBool:
		switch b := v.(type) {
		case nil:
			return false, true
		case bool:
			return b, true
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "on", "1", "yes":
				return true, true
			case "false", "off", "0", "no", "":
				return false, true
			}
		}
		return nil, false
	case KindList:
		switch l := v.(type) {
		case nil:
			return []string{}, true
		case []string:
			return compactList(l), true
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return compactList(out), true
		case string:
			return compactList(strings.Split(l, ",")), true
		}
		return nil, false
	default:
		switch s := v.(type) {
		case nil:
			return "", true
		case string:
			if f.Kind == KindPassword || f.Kind == KindConfirmPassword {
				return s, true
			}
			return strings.TrimSpace(s), true
		}
		return nil, false
	}
}

func compactList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// collect coerces every field of step present in values. Fields that do not
// coerce are reported and left out.
func collect(step Step, values Values) (map[string]any, map[string]string) {
	got := make(map[string]any, len(step.Fields))
	errs := map[string]string{}
	for _, f := range step.Fields {
		raw, present := values[f.Name]
		if !present {
			continue
		}
		v, ok := f.coerce(raw)
		if !ok {
			errs[f.Name] = msgInvalidValue
			continue
		}
		got[f.Name] = v
	}
	return got, errs
}

// checkFields runs the per-kind presence and shape checks against data.
func checkFields(step Step, data map[string]any, now time.Time, errs map[string]string) {
	for _, f := range step.Fields {
		if _, done := errs[f.Name]; done {
			continue
		}
		if f.Kind == KindBool {
			if f.Required && !boolValue(data, f.Name, false) {
				errs[f.Name] = msgRequired
			}
			continue
		}
		if f.Kind == KindList {
			continue
		}
		val := stringValue(data, f.Name)
		if val == "" {
			if f.Required {
				errs[f.Name] = msgRequired
			}
			continue
		}
		if msg := checkKind(f.Kind, val, data, now); msg != "" {
			errs[f.Name] = msg
		}
	}
}

func checkKind(kind FieldKind, val string, data map[string]any, now time.Time) string {
	switch kind {
	case KindUsername:
		if !entity.ValidUsernameFormat(val) {
			return entity.ValidateUsernameUnique(nil, val, "").Message
		}
	case KindEmail:
		if r := entity.ValidateEmail(val); !r.Valid {
			return r.Message
		}
	case KindPassword:
		if r := entity.ValidatePassword(val); !r.Valid {
			return r.Message
		}
	case KindConfirmPassword:
		if val != stringValue(data, FieldPassword) {
			return msgPasswordsDiffer
		}
	case KindFullName:
		if r := entity.ValidateFullName(val); !r.Valid {
			return r.Message
		}
	case KindDate:
		if r := entity.ValidateBirthDate(val, now); !r.Valid {
			return r.Message
		}
	case KindPhone:
		if len(phoneDigits.FindAllString(val, -1)) < 10 {
			return msgPhoneIncomplete
		}
	case KindURL:
		if !websitePattern.MatchString(val) {
			return msgURLScheme
		}
	case KindColor:
		if !validation.IsHexColor(val) {
			return msgInvalidColor
		}
	}
	return ""
}

// stepCheck carries the semantic checks of one step.
type stepCheck struct {
	errs        map[string]string
	messages    []string
	suggestions []string
}

// checkSemantics runs the cross-field and repository-backed rules of step n.
func (w *Wizard) checkSemantics(ctx context.Context, n int, data map[string]any, c *stepCheck) error {
	// steps 2 and 5 are fully covered by their field kinds
	switch n {
	case 1:
		existing, err := w.users.List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if _, bad := c.errs[FieldUsername]; !bad {
			name := stringValue(data, FieldUsername)
			if r := entity.ValidateUsernameUnique(existing, name, ""); !r.Valid {
				c.errs[FieldUsername] = r.Message
				if r.Conflict {
					c.suggestions = w.suggester.Suggest(existing, name)
				}
			}
		}
		if _, bad := c.errs[FieldEmail]; !bad {
			if r := entity.ValidateEmailUnique(existing, stringValue(data, FieldEmail), ""); !r.Valid {
				c.errs[FieldEmail] = r.Message
			}
		}
	case 3:
		if _, bad := c.errs[FieldPostalCode]; !bad {
			if r := entity.ValidatePostalCode(stringValue(data, FieldPostalCode)); !r.Valid {
				c.errs[FieldPostalCode] = r.Message
			} else if stringValue(data, FieldStreet) == "" {
				c.errs[FieldPostalCode] = msgPostalNotFound
			}
		}
	case 4:
		if r := entity.ValidateBrands(listValue(data, FieldFavoriteBrands)); !r.Valid {
			c.errs[FieldFavoriteBrands] = r.Message
			c.messages = append(c.messages, r.Message)
		}
	case 6:
		if !boolValue(data, FieldAcceptTerms, false) {
			c.errs[FieldAcceptTerms] = msgTermsRequired
			c.messages = append(c.messages, msgTermsRequired)
		}
	}
	return nil
}

func stringValue(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func listValue(data map[string]any, key string) []string {
	l, _ := data[key].([]string)
	return l
}

func boolValue(data map[string]any, key string, def bool) bool {
	b, ok := data[key].(bool)
	if !ok {
		return def
	}
	return b
}

func boolPtr(data map[string]any, key string, def bool) *bool {
	b := boolValue(data, key, def)
	return &b
}

// assemble turns the accumulator into a construction DTO.
func assemble(data map[string]any, now time.Time) entity.UserInput {
	return entity.UserInput{
		Username:  stringValue(data, FieldUsername),
		Email:     stringValue(data, FieldEmail),
		Password:  stringValue(data, FieldPassword),
		FullName:  stringValue(data, FieldFullName),
		BirthDate: stringValue(data, FieldBirthDate),
		Gender:    stringValue(data, FieldGender),
		Phone:     stringValue(data, FieldPhone),
		Bio:       stringValue(data, FieldBio),
		Address: entity.Address{
			PostalCode:   stringValue(data, FieldPostalCode),
			Street:       stringValue(data, FieldStreet),
			Number:       stringValue(data, FieldNumber),
			Complement:   stringValue(data, FieldComplement),
			Neighborhood: stringValue(data, FieldNeighborhood),
			City:         stringValue(data, FieldCity),
			State:        stringValue(data, FieldState),
		},
		Styles:         listValue(data, FieldStyles),
		FavoriteBrands: listValue(data, FieldFavoriteBrands),
		FavoriteColor:  stringValue(data, FieldFavoriteColor),
		Social: entity.SocialLinks{
			Instagram: stringValue(data, FieldInstagram),
			TikTok:    stringValue(data, FieldTikTok),
			Pinterest: stringValue(data, FieldPinterest),
			Website:   stringValue(data, FieldWebsite),
		},
		Privacy: entity.PrivacyInput{
			PublicProfile:       boolPtr(data, FieldPublicProfile, true),
			ShowSocial:          boolPtr(data, FieldShowSocial, true),
			AppearInSuggestions: boolPtr(data, FieldAppearInSuggestions, true),
			Searchable:          boolPtr(data, FieldSearchable, true),
		},
		Notifications: entity.NotificationsInput{
			Email:   boolPtr(data, FieldNotifyEmail, true),
			Follow:  boolPtr(data, FieldNotifyFollow, true),
			Like:    boolPtr(data, FieldNotifyLike, true),
			Comment: boolPtr(data, FieldNotifyComment, true),
		},
		AcceptedTerms: boolValue(data, FieldAcceptTerms, false),
		Newsletter:    boolValue(data, FieldNewsletter, false),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
