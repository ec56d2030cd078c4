package formsg

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// ErrEmptyCatalog is returned when a catalog defines no messages.
var ErrEmptyCatalog = errors.New("catalog defines no messages")

// Catalog is a serialized message configuration. Each message is a
// text/template executed with the error payload, for example:
//
//	messages:
//	  required: "Please fill in this field"
//	  minlength: "Use at least {{.requiredLength}} characters"
//
// Payload fields are exposed under the names actual, max, min, actualLength,
// requiredLength, requiredPattern and actualValue. Boolean and custom
// payloads are exposed as value.
type Catalog struct {
	Messages map[string]string `json:"messages" yaml:"messages" validate:"required,dive,keys,required,endkeys,required"`
}

// Validate checks that every message has a non-empty kind and text.
func (c Catalog) Validate() error {
	if len(c.Messages) == 0 {
		return ErrEmptyCatalog
	}
	return validate.Struct(c)
}

// Compile parses every message template into a Config.
func (c Catalog) Compile() (Config, error) {
	cfg := make(Config, len(c.Messages))
	for kind, text := range c.Messages {
		p, err := compileMessage(kind, text)
		if err != nil {
			return nil, err
		}
		cfg[ErrorKind(kind)] = p
	}
	return cfg, nil
}

// DecodeCatalog unmarshals, validates and compiles a catalog.
func DecodeCatalog(data []byte, codec Codec) (Config, error) {
	var catalog Catalog
	if err := codec.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return catalog.Compile()
}

func compileMessage(kind, text string) (Producer, error) {
	if !strings.Contains(text, "{{") {
		return Text(text), nil
	}
	tmpl, err := template.New(kind).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", kind, err)
	}
	return func(payload any) string {
		var b strings.Builder
		if err := tmpl.Execute(&b, payloadData(payload)); err != nil {
			return ""
		}
		return b.String()
	}, nil
}

// payloadData exposes a payload to message templates.
func payloadData(payload any) map[string]any {
	switch p := payload.(type) {
	case MaxPayload:
		return map[string]any{"actual": p.Actual, "max": formatNumber(p.Max)}
	case *MaxPayload:
		if p != nil {
			return payloadData(*p)
		}
	case MinPayload:
		return map[string]any{"actual": p.Actual, "min": formatNumber(p.Min)}
	case *MinPayload:
		if p != nil {
			return payloadData(*p)
		}
	case LengthPayload:
		return map[string]any{"actualLength": p.ActualLength, "requiredLength": p.RequiredLength}
	case *LengthPayload:
		if p != nil {
			return payloadData(*p)
		}
	case PatternPayload:
		return map[string]any{"requiredPattern": p.RequiredPattern, "actualValue": p.ActualValue}
	case map[string]any:
		return p
	}
	return map[string]any{"value": payload}
}
