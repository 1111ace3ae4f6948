package api

import (
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	tagDistance = "distance"
	maxDistance = 9999999.99
)

var registerOnce sync.Once

// registerValidators adds the custom rules to gin's validator and reports
// field names by their json tag.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation(tagDistance, validateDistance)
	})
}

// validateDistance accepts up to 7 integer digits and 2 fraction digits.
func validateDistance(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.Float64 && field.Kind() != reflect.Float32 {
		return false
	}
	return validDistance(field.Float())
}

func validDistance(d float64) bool {
	if math.IsNaN(d) || math.IsInf(d, 0) || math.Abs(d) > maxDistance {
		return false
	}
	cents := d * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}
