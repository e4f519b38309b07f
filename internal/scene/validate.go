package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"quotereel/internal/services"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
			_, err := ParseColor(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("fontfile", func(fl validator.FieldLevel) bool {
			return isFontFile(fl.Field().String())
		})
		_ = v.RegisterValidation("basename", func(fl validator.FieldLevel) bool {
			return isBaseName(fl.Field().String())
		})
		_ = v.RegisterValidation("langtag", func(fl validator.FieldLevel) bool {
			_, err := NormalizeLanguage(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// ValidateScenes checks a submitted scene list.
func ValidateScenes(scenes []Scene) error {
	if len(scenes) == 0 {
		return services.Wrap(services.ErrConfiguration, "submit", "validate scenes", "at least one scene is required", nil)
	}
	for i, sc := range scenes {
		sc.Overrides = sc.Overrides.withoutBlanks()
		if err := validatorInstance().Struct(sc); err != nil {
			return wrapValidation(fmt.Sprintf("scene %d", i+1), err)
		}
		if strings.TrimSpace(sc.Narration) == "" || strings.TrimSpace(sc.ImagePrompt) == "" {
			return services.Wrap(services.ErrConfiguration, "submit", fmt.Sprintf("scene %d", i+1), "narration and image_prompt must not be blank", nil)
		}
	}
	return nil
}

// ValidateJobOptions checks the job-level overrides.
func ValidateJobOptions(opts JobOptions) error {
	opts.Options = opts.Options.withoutBlanks()
	opts.ImageBackend = unsetBlank(opts.ImageBackend)
	opts.Language = unsetBlank(opts.Language)
	if err := validatorInstance().Struct(opts); err != nil {
		return wrapValidation("options", err)
	}
	return nil
}

// ValidateRenderConfig checks a complete RenderConfig, typically the system default.
func ValidateRenderConfig(cfg RenderConfig) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		return wrapValidation("render", err)
	}
	return nil
}

// withoutBlanks clears blank text overrides, which Resolve treats as unset.
func (o Options) withoutBlanks() Options {
	o.SubtitleFont = unsetBlank(o.SubtitleFont)
	o.SubtitleColor = unsetBlank(o.SubtitleColor)
	o.SubtitleOutlineColor = unsetBlank(o.SubtitleOutlineColor)
	o.SubtitlePosition = unsetBlank(o.SubtitlePosition)
	o.QuoteFont = unsetBlank(o.QuoteFont)
	o.AuthorFont = unsetBlank(o.AuthorFont)
	o.TextColor = unsetBlank(o.TextColor)
	o.TextOutlineColor = unsetBlank(o.TextOutlineColor)
	return o
}

func unsetBlank(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

func wrapValidation(scope string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return services.Wrap(services.ErrConfiguration, "validate", scope, "", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeFieldError(fe))
	}
	return services.Wrap(services.ErrConfiguration, "validate", scope, strings.Join(parts, "; "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s (got %v)", field, boundWord(fe.Tag()), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %v)", field, fe.Param(), fe.Value())
	case "color":
		return fmt.Sprintf("%s is not a supported color (got %v)", field, fe.Value())
	case "fontfile":
		return fmt.Sprintf("%s must be a .ttf or .otf file name (got %v)", field, fe.Value())
	case "langtag":
		return fmt.Sprintf("%s is not a valid language tag (got %v)", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// fieldPath drops the root struct name ("JobOptions.subtitle_font" -> "subtitle_font").
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

func isFontFile(name string) bool {
	if !isBaseName(name) {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".ttc":
		return true
	default:
		return false
	}
}

func isBaseName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return false
	}
	return !strings.ContainsAny(trimmed, `/\`) && filepath.Base(trimmed) == trimmed
}
