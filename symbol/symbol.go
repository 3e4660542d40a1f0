package symbol

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrDuplicateID = errors.New("symbol id already in catalog")
	ErrInvalid     = errors.New("invalid symbol")
)

// Symbol is one face on the reel strip
type Symbol struct {
	ID    string `json:"id" toml:"id" validate:"required,max=32"`
	Label string `json:"label" toml:"label" validate:"required,max=32"`
	Icon  string `json:"icon" toml:"icon" validate:"required,max=16"`
	Color string `json:"color" toml:"color" validate:"required,hexcolor"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	upper        = cases.Upper(language.Und)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Normalize trims fields and upper-cases the label the way the strip prints it
func Normalize(s Symbol) Symbol {
	s.ID = strings.ToUpper(strings.TrimSpace(s.ID))
	s.Label = upper.String(strings.TrimSpace(s.Label))
	s.Icon = strings.TrimSpace(s.Icon)
	s.Color = strings.TrimSpace(s.Color)
	return s
}

// Validate checks a symbol received from outside the program
func Validate(s Symbol) error {
	if err := getValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", ErrInvalid, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Defaults returns the stock strip
func Defaults() []Symbol {
	return []Symbol{
		{ID: "SID", Label: "THE LEGEND SID", Icon: "🧠", Color: "#ffd700"},
		{ID: "TEAM", Label: "TEAM ENABLE.", Icon: "🤝", Color: "#ff9800"},
		{ID: "AUTOMATION", Label: "ELITE AUTO.", Icon: "⚙", Color: "#4CAF50"},
		{ID: "COACH", Label: "SID COACHING", Icon: "🎓", Color: "#ff6b6b"},
		{ID: "FUN", Label: "TEAM VIBES", Icon: "🎉", Color: "#ff9f1c"},
		{ID: "LEARN", Label: "LEARNING LAB", Icon: "📚", Color: "#2ec4b6"},
		{ID: "PARTNER", Label: "STAKEHOLDER LOVE", Icon: "💌", Color: "#ff99c8"},
		{ID: "DASHBOARD", Label: "ELITE DASHBOARD", Icon: "📊", Color: "#00f2ff"},
	}
}
