// Package item models pack items: the immutable declarative definition in one
// of seven variants, and StatefulItem, the per-session state machine that
// answers provider counts.
package item

import "github.com/roach88/packtrack/internal/ir"

// Kind is the item variant tag, as written in the "type" field.
type Kind string

const (
	KindStatic            Kind = "static"
	KindProgressive       Kind = "progressive"
	KindToggle            Kind = "toggle"
	KindConsumable        Kind = "consumable"
	KindProgressiveToggle Kind = "progressive_toggle"
	KindCompositeToggle   Kind = "composite_toggle"
	KindToggleBadged      Kind = "toggle_badged"
)

// Item is a declarative item definition.
type Item struct {
	Name    string
	Codes   ir.CodeList
	Variant Variant
}

// Kind returns the variant tag.
func (i Item) Kind() Kind {
	if i.Variant == nil {
		return ""
	}
	return i.Variant.Kind()
}

// Variant is one of Static, Progressive, Toggle, Consumable,
// ProgressiveToggle, CompositeToggle or ToggleBadged.
type Variant interface {
	Kind() Kind
	isVariant()
}

// Display describes how an item is drawn.
type Display struct {
	Img             string `json:"img"`
	DisabledImg     string `json:"disabled_img,omitempty"`
	ImgMods         string `json:"img_mods,omitempty"`
	DisabledImgMods string `json:"disabled_img_mods,omitempty"`
}

// Stage is one step of a progressive item.
type Stage struct {
	Name           string
	Display        Display
	Codes          ir.CodeList
	SecondaryCodes ir.CodeList
	// InheritCodes lets the stage scan continue into the following stages.
	InheritCodes bool
}

// Static always provides its codes and ignores actions.
type Static struct {
	Display Display
}

// Progressive steps through Stages. With AllowDisabled it starts inactive
// and provides nothing until the first primary action.
type Progressive struct {
	Stages          []Stage
	AllowDisabled   bool
	InitialStageIdx int
	Loop            bool
}

// Toggle provides its codes only while active.
type Toggle struct {
	Display            Display
	InitialActiveState bool
}

// Consumable counts up and down between MinQuantity and MaxQuantity.
// A negative MaxQuantity means there is no upper bound.
type Consumable struct {
	Display           Display
	MinQuantity       int
	MaxQuantity       int
	Increment         int
	Decrement         int
	InitialQuantity   int
	OverlayBackground string
	OverlayFontSize   int
	BadgeFontSize     int
}

// Bounded reports whether MaxQuantity applies.
func (c Consumable) Bounded() bool {
	return c.MaxQuantity >= 0
}

// ProgressiveToggle cycles stages on primary and flips its active flag on
// secondary.
type ProgressiveToggle struct {
	Stages             []Stage
	InitialStageIdx    int
	Loop               bool
	InitialActiveState bool
}

// CompositeToggle combines two toggles. The simple form names the left and
// right item codes; the complex form lists images with their own code sets.
type CompositeToggle struct {
	ItemLeft  string
	ItemRight string
	Images    []CompositeImage
}

// Complex reports whether the definition uses the images form.
func (c CompositeToggle) Complex() bool {
	return len(c.Images) > 0
}

// CompositeImage is one image of a complex CompositeToggle.
type CompositeImage struct {
	Display Display
	Left    bool
	Right   bool
	Codes   ir.CodeList
}

// ToggleBadged is a Toggle drawn as a badge over BaseItem.
type ToggleBadged struct {
	Display            Display
	BaseItem           string
	InitialActiveState bool
}

func (Static) Kind() Kind            { return KindStatic }
func (Progressive) Kind() Kind       { return KindProgressive }
func (Toggle) Kind() Kind            { return KindToggle }
func (Consumable) Kind() Kind        { return KindConsumable }
func (ProgressiveToggle) Kind() Kind { return KindProgressiveToggle }
func (CompositeToggle) Kind() Kind   { return KindCompositeToggle }
func (ToggleBadged) Kind() Kind      { return KindToggleBadged }

func (Static) isVariant()            {}
func (Progressive) isVariant()       {}
func (Toggle) isVariant()            {}
func (Consumable) isVariant()        {}
func (ProgressiveToggle) isVariant() {}
func (CompositeToggle) isVariant()   {}
func (ToggleBadged) isVariant()      {}

// AllCodes lists every code the item can ever provide: common codes, stage
// codes and composite codes.
func (i Item) AllCodes() ir.CodeList {
	codes := append(ir.CodeList{}, i.Codes...)
	switch v := i.Variant.(type) {
	case Progressive:
		for _, s := range v.Stages {
			codes = append(codes, s.Codes...)
		}
	case ProgressiveToggle:
		for _, s := range v.Stages {
			codes = append(codes, s.Codes...)
		}
	case CompositeToggle:
		if v.ItemLeft != "" {
			codes = append(codes, v.ItemLeft)
		}
		if v.ItemRight != "" {
			codes = append(codes, v.ItemRight)
		}
		for _, img := range v.Images {
			codes = append(codes, img.Codes...)
		}
	}
	return codes
}
