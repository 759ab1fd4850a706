// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует все кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("phone_TH", isThaiPhoneNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("postal_TH", isThaiPostalCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}
	if err := v.RegisterValidation("location_logic", validateFullLocation); err != nil {
		return err
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(fl.Field().String())
}

// Тайские номера: +66XXXXXXXXX или локальный формат 0XXXXXXXXX.
func isThaiPhoneNumber(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^(\+66\d{8,9}|0\d{8,9})$`)
	return re.MatchString(fl.Field().String())
}

func isThaiPostalCode(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^\d{5}$`)
	return re.MatchString(fl.Field().String())
}

// Правило местоположения: координаты принимаются только вместе с полным
// адресом (province/district/subdistrict/postal_code). Вешается на поле
// Latitude и смотрит на соседние поля родительской структуры.
func validateFullLocation(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	if parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}

	for _, name := range []string{"Province", "District", "Subdistrict", "PostalCode"} {
		f := parent.FieldByName(name)
		if !f.IsValid() || f.Kind() != reflect.String || f.String() == "" {
			return false
		}
	}
	return true
}
