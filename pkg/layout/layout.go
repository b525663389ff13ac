// Package layout defines the design-system tokens passed to every block
// render call.
package layout

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
)

// Tone is the background treatment of a block.
type Tone string

// Tone values.
const (
	ToneSurface  Tone = "surface"
	ToneRaised   Tone = "raised"
	ToneAccent   Tone = "accent"
	ToneInverted Tone = "inverted"
)

// ContentAlign positions block content horizontally.
type ContentAlign string

// ContentAlign values.
const (
	AlignLeft       ContentAlign = "left"
	AlignCenter     ContentAlign = "center"
	AlignRight      ContentAlign = "right"
	AlignSplitStart ContentAlign = "split-start"
	AlignSplitEnd   ContentAlign = "split-end"
)

// Density controls vertical rhythm.
type Density string

// Density values.
const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
	DensityRelaxed     Density = "relaxed"
)

// ContentWidth limits the measure of block content.
type ContentWidth string

// ContentWidth values.
const (
	WidthNarrow  ContentWidth = "narrow"
	WidthDefault ContentWidth = "default"
	WidthWide    ContentWidth = "wide"
)

// Props is the resolved set of layout tokens for one block.
type Props struct {
	Tone         Tone         `json:"tone" mapstructure:"tone" validate:"oneof=surface raised accent inverted"`
	ContentAlign ContentAlign `json:"contentAlign" mapstructure:"contentAlign" validate:"oneof=left center right split-start split-end"`
	Density      Density      `json:"density" mapstructure:"density" validate:"oneof=compact comfortable relaxed"`
	ContentWidth ContentWidth `json:"contentWidth" mapstructure:"contentWidth" validate:"oneof=narrow default wide"`
}

// Override holds per-instance layout tokens. Empty fields keep the default.
type Override struct {
	Tone         Tone         `json:"tone,omitempty" yaml:"tone,omitempty" hcl:"tone,optional" mapstructure:"tone"`
	ContentAlign ContentAlign `json:"contentAlign,omitempty" yaml:"contentAlign,omitempty" hcl:"contentAlign,optional" mapstructure:"contentAlign"`
	Density      Density      `json:"density,omitempty" yaml:"density,omitempty" hcl:"density,optional" mapstructure:"density"`
	ContentWidth ContentWidth `json:"contentWidth,omitempty" yaml:"contentWidth,omitempty" hcl:"contentWidth,optional" mapstructure:"contentWidth"`
}

// Defaults returns the layout used when an instance sets nothing.
func Defaults() Props {
	return Props{
		Tone:         ToneSurface,
		ContentAlign: AlignLeft,
		Density:      DensityComfortable,
		ContentWidth: WidthDefault,
	}
}

// Merge applies the non-empty fields of o on top of base.
func Merge(base Props, o *Override) Props {
	if o == nil {
		return base
	}
	if o.Tone != "" {
		base.Tone = o.Tone
	}
	if o.ContentAlign != "" {
		base.ContentAlign = o.ContentAlign
	}
	if o.Density != "" {
		base.Density = o.Density
	}
	if o.ContentWidth != "" {
		base.ContentWidth = o.ContentWidth
	}

	return base
}

// Resolve merges o onto Defaults and validates the result.
func Resolve(o *Override) (Props, error) {
	p := Merge(Defaults(), o)
	if err := Validate(p); err != nil {
		return Props{}, err
	}

	return p, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// Validate checks that every token is one of its allowed values.
func Validate(p Props) error {
	err := validatorInstance().Struct(p)
	if err == nil {
		return nil
	}

	var msgs []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %q is not one of [%s]",
				lowerFirst(fe.Field()), fe.Value(), fe.Param()))
		}
	} else {
		msgs = append(msgs, err.Error())
	}

	return kiterrors.NewValidationError(
		kiterrors.ErrCodeInvalidLayout,
		"invalid layout: "+strings.Join(msgs, "; "),
	)
}

// ParseDensity validates a page-level density token. The empty string is
// accepted and means "not set".
func ParseDensity(s string) (Density, error) {
	switch Density(s) {
	case "", DensityCompact, DensityComfortable, DensityRelaxed:
		return Density(s), nil
	}

	return "", kiterrors.NewValidationError(
		kiterrors.ErrCodeInvalidLayout,
		fmt.Sprintf("density %q is not one of [compact comfortable relaxed]", s),
	)
}

// DataAttrs renders the tokens as data attributes, for templates that
// want to expose them to CSS.
func (p Props) DataAttrs() string {
	return fmt.Sprintf(` data-tone="%s" data-align="%s" data-density="%s" data-width="%s"`,
		p.Tone, p.ContentAlign, p.Density, p.ContentWidth)
}

// Map returns the tokens keyed by their JSON names, the shape templates
// see as ctx.layout.
func (p Props) Map() map[string]any {
	return map[string]any{
		"tone":         string(p.Tone),
		"contentAlign": string(p.ContentAlign),
		"density":      string(p.Density),
		"contentWidth": string(p.ContentWidth),
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}

	return strings.ToLower(s[:1]) + s[1:]
}
