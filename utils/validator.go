package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Minimal internal validator to avoid an external dependency. Supports:
// - required
// - email (single @, non-empty local and domain parts)
// - phone10 (10 digits starting 6-9)
// - nameok (letters, numbers, space, hyphen, apostrophe, 1-100 chars)
// - amountpos (parses as a number > 0)

var (
	reEmail   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone10 = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	reNameOK  = regexp.MustCompile(`^[A-Za-z0-9 \-']{1,100}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = strings.TrimSpace(fv.String())
		}
		for _, p := range strings.Split(tag, ",") {
			switch p = strings.TrimSpace(p); p {
			case "required":
				if sval == "" {
					return errors.New(field.Name + " is required")
				}
			case "email":
				if sval != "" && !reEmail.MatchString(sval) {
					return errors.New(field.Name + " must be a valid email address")
				}
			case "phone10":
				if sval != "" && !rePhone10.MatchString(sval) {
					return errors.New(field.Name + " must be a 10-digit mobile number")
				}
			case "nameok":
				if sval != "" && !reNameOK.MatchString(sval) {
					return errors.New(field.Name + " contains invalid characters")
				}
			case "amountpos":
				if sval != "" {
					f, err := strconv.ParseFloat(sval, 64)
					if err != nil || f <= 0 {
						return errors.New(field.Name + " must be a positive amount")
					}
				}
			}
		}
	}
	return nil
}
