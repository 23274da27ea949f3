package term

import (
	"regexp"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

var (
	schoolYearTag   = "schoolyear"
	schoolYearText  = "school year must look like 2024-2025"
	schoolYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// Term is a school year. Exactly one Term is Active at a time.
type Term struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (t Term) IsActive() bool { return t.Status == StatusActive }

// NewTerm contains information needed to create a new Term.
type NewTerm struct {
	Name   string `json:"name" validate:"required,schoolyear"`
	Active bool   `json:"active"`
}

func (nt *NewTerm) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

// InitValidators registers the term validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterRules(validate, translator, core.Rule{Tag: schoolYearTag, Text: schoolYearText, Func: schoolYearValidation})
}

// schoolYearValidation only allows consecutive years: "2024-2025".
func schoolYearValidation(fl validator.FieldLevel) bool {
	m := schoolYearRegex.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	from, _ := strconv.Atoi(m[1])
	to, _ := strconv.Atoi(m[2])
	return to == from+1
}
