package validators

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/blogpub/models"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Rule is one (field, tag, message) check. Tag is a go-playground/validator
// tag, or TagString which only checks that the field holds a single value.
// Optional rules are skipped when the field is absent or empty.
type Rule struct {
	Field    string
	Tag      string
	Message  string
	Optional bool
}

// Schema is an ordered list of rules evaluated in declaration order.
type Schema []Rule

// TagString rejects fields sent more than once (e.g. ?title=a&title=b).
const TagString = "string"

// Date layouts accepted by the "date" tag and ParseDate.
var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("course", func(fl validator.FieldLevel) bool {
			return models.IsValidCourse(fl.Field().String())
		})
		_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate runs every rule against values. It returns the trimmed first value
// of each field present in the schema, and every failure in rule order.
func (s Schema) Validate(values url.Values) (map[string]string, []FieldError) {
	fields := map[string]string{}
	var errs []FieldError

	for _, rule := range s {
		raw, present := values[rule.Field]
		value := ""
		if len(raw) > 0 {
			value = strings.TrimSpace(raw[0])
		}
		if present && len(raw) > 0 {
			fields[rule.Field] = value
		}
		if rule.Optional && value == "" && len(raw) <= 1 {
			continue
		}

		ok := true
		if rule.Tag == TagString {
			ok = len(raw) <= 1
		} else {
			ok = engine().Var(value, rule.Tag) == nil
		}
		if !ok {
			errs = append(errs, FieldError{Field: rule.Field, Message: rule.Message})
		}
	}
	return fields, errs
}

// ParseDate accepts YYYY-MM-DD (read in the service time zone) or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, models.Location())
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
