// Package validation validates configuration and request structs.
//
// Struct tags are checked with go-playground/validator:
//
//	type Config struct {
//	    Port int `json:"port" validate:"gte=0,lte=65535"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules use the collecting Validator:
//
//	v := validation.New()
//	v.Check(cfg.Mode != "bearer" || cfg.Secret != "", "jwt_secret", "is required for bearer auth")
//	err := v.Err()
//
// Both report an INVALID_INPUT AppError whose "fields" detail lists each failure.
package validation
