package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Channel names are dot-separated lowercase segments: module.entity.action
	// Examples: game.score, chat.message.sent, probe.tick
	channelNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)
	moduleNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedPrefixes = []string{"system.", "internal.", "debug."}
)

// Validator checks channel definitions and names
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the channel naming rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("channelname", func(fl validator.FieldLevel) bool {
		return validChannelName(fl.Field().String())
	})
	_ = v.RegisterValidation("modulename", func(fl validator.FieldLevel) bool {
		return moduleNamePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

func validChannelName(name string) bool {
	if !channelNamePattern.MatchString(name) {
		return false
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}

// ValidateDefinition validates a channel definition
func (v *Validator) ValidateDefinition(def Definition) error {
	if err := v.validate.Struct(def); err != nil {
		return describe(err)
	}
	if def.Module != "" && !strings.HasPrefix(def.Name, def.Module+".") {
		return fmt.Errorf("channel %s is outside module %s", def.Name, def.Module)
	}
	return nil
}

// ValidateName checks that name follows the channel naming convention
func (v *Validator) ValidateName(name string) error {
	if err := v.validate.Var(name, "required,max=100,channelname"); err != nil {
		return describe(err)
	}
	return nil
}

// describe turns validator errors into one readable message per failed rule.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if field == "" {
			field = "name"
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s cannot be empty", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s too long (max %s characters)", field, fe.Param()))
		case "channelname":
			msgs = append(msgs, fmt.Sprintf("%s must be lowercase dot-separated segments (module.entity.action) and not start with %s",
				field, strings.Join(reservedPrefixes, ", ")))
		case "modulename":
			msgs = append(msgs, fmt.Sprintf("%s must be lowercase alphanumeric with underscores", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
