package serialization

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	validator "github.com/go-playground/validator/v10"
)

// Unmarshal decodes jsonBytes into v and validates the result against its
// struct tags. Validation failures are logged field by field and returned.
// Non-struct targets (maps, slices) decode without validation.
func Unmarshal(ctx context.Context, validate *validator.Validate, logger *slog.Logger, jsonBytes []byte, v any) error {
	err := json.Unmarshal(jsonBytes, v)
	if err != nil {
		return err
	}
	// now validate the unmarshalled data
	err = validate.StructCtx(ctx, v)
	if err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// the target carries no struct tags to check
			return nil
		}
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, validationError := range validationErrors {
				logger.Info("Validation error", "field", validationError.Field(), "tag", validationError.Tag(), "value", validationError.Value())
			}
		}
		return err
	}
	// if the validation is successful, return nil
	return nil
}
