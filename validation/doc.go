// Package validation checks request input and reports failures as
// INVALID_INPUT AppErrors.
//
// Struct tags use go-playground/validator with two extra tags: notblank
// (rejects whitespace-only strings) and image_ext (accepts filenames with an
// allowed image extension).
//
//	type loginRequest struct {
//	    Password string `json:"password" validate:"required"`
//	}
//	err := validation.Validate(req)
//
// The fluent Validator covers checks that do not fit tags:
//
//	err := validation.New().Required("title", title).MaxLength("title", title, 200).Err()
package validation
