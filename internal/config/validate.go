package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/tuicard/internal/model"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Setting names reported for struct field namespaces.
var settingNames = map[string]string{
	"Config.Collection":        "--collection",
	"Config.Length":            "--length",
	"Config.Mode":              "--mode",
	"Config.Source":            "collections.source",
	"Config.Speech.Lang":       "speech.lang",
	"Config.Speech.Voice":      "speech.voice",
	"Config.Speech.CloudVoice": "speech.cloud-voice",
	"Config.Speech.Region":     "speech.region",
	"Config.Speech.Command":    "speech.command",
	"Config.Speech.Player":     "speech.player",
	"Config.Speech.Rate":       "speech.rate",
}

// Validate checks practice settings after flags and file values are merged.
func Validate(cfg model.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name, ok := settingNames[fe.Namespace()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be > %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Sprintf("%s must not be empty", name)
	case "url":
		return fmt.Sprintf("%s must be a URL", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}
