package item

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
)

// ErrUnknownKind is returned for a missing or unrecognized "type" tag.
var ErrUnknownKind = errors.New("unknown item type")

type commonJSON struct {
	Name  string      `json:"name"`
	Type  Kind        `json:"type"`
	Codes ir.CodeList `json:"codes"`
}

// UnmarshalJSON decodes the common fields and the variant selected by "type".
// Defaults: allow_disabled, loop and inherit_codes are true; increment and
// decrement are 1; an absent max_quantity leaves the consumable unbounded.
func (i *Item) UnmarshalJSON(data []byte) error {
	var common commonJSON
	if err := json.Unmarshal(data, &common); err != nil {
		return err
	}

	variant, err := decodeVariant(common.Type, data)
	if err != nil {
		return err
	}

	*i = Item{Name: common.Name, Codes: common.Codes, Variant: variant}
	return nil
}

func decodeVariant(kind Kind, data []byte) (Variant, error) {
	switch kind {
	case KindStatic:
		var v struct {
			Display
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return Static{Display: v.Display}, nil

	case KindProgressive:
		var v struct {
			Stages          []Stage  `json:"stages"`
			AllowDisabled   *ir.Bool `json:"allow_disabled"`
			InitialStageIdx ir.Int   `json:"initial_stage_idx"`
			Loop            *ir.Bool `json:"loop"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return Progressive{
			Stages:          v.Stages,
			AllowDisabled:   boolOr(v.AllowDisabled, true),
			InitialStageIdx: int(v.InitialStageIdx),
			Loop:            boolOr(v.Loop, true),
		}, nil

	case KindToggle:
		var v struct {
			Display
			InitialActiveState ir.Bool `json:"initial_active_state"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return Toggle{Display: v.Display, InitialActiveState: bool(v.InitialActiveState)}, nil

	case KindConsumable:
		var v struct {
			Display
			MinQuantity       ir.Int  `json:"min_quantity"`
			MaxQuantity       *ir.Int `json:"max_quantity"`
			Increment         *ir.Int `json:"increment"`
			Decrement         *ir.Int `json:"decrement"`
			InitialQuantity   ir.Int  `json:"initial_quantity"`
			OverlayBackground string  `json:"overlay_background"`
			OverlayFontSize   ir.Int  `json:"overlay_font_size"`
			BadgeFontSize     ir.Int  `json:"badge_font_size"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return Consumable{
			Display:           v.Display,
			MinQuantity:       int(v.MinQuantity),
			MaxQuantity:       intOr(v.MaxQuantity, -1),
			Increment:         intOr(v.Increment, 1),
			Decrement:         intOr(v.Decrement, 1),
			InitialQuantity:   int(v.InitialQuantity),
			OverlayBackground: v.OverlayBackground,
			OverlayFontSize:   int(v.OverlayFontSize),
			BadgeFontSize:     int(v.BadgeFontSize),
		}, nil

	case KindProgressiveToggle:
		var v struct {
			Stages             []Stage  `json:"stages"`
			InitialStageIdx    ir.Int   `json:"initial_stage_idx"`
			Loop               *ir.Bool `json:"loop"`
			InitialActiveState ir.Bool  `json:"initial_active_state"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return ProgressiveToggle{
			Stages:             v.Stages,
			InitialStageIdx:    int(v.InitialStageIdx),
			Loop:               boolOr(v.Loop, true),
			InitialActiveState: bool(v.InitialActiveState),
		}, nil

	case KindCompositeToggle:
		var v struct {
			ItemLeft  *string          `json:"item_left"`
			ItemRight *string          `json:"item_right"`
			Images    []CompositeImage `json:"images"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if len(v.Images) > 0 {
			return CompositeToggle{Images: v.Images}, nil
		}
		if v.ItemLeft == nil || v.ItemRight == nil {
			return nil, fmt.Errorf("composite_toggle needs item_left and item_right, or images")
		}
		return CompositeToggle{ItemLeft: *v.ItemLeft, ItemRight: *v.ItemRight}, nil

	case KindToggleBadged:
		var v struct {
			Display
			BaseItem           string  `json:"base_item"`
			InitialActiveState ir.Bool `json:"initial_active_state"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return ToggleBadged{
			Display:            v.Display,
			BaseItem:           v.BaseItem,
			InitialActiveState: bool(v.InitialActiveState),
		}, nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}

// UnmarshalJSON decodes a stage; inherit_codes defaults to true.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var v struct {
		Display
		Name           string      `json:"name"`
		Codes          ir.CodeList `json:"codes"`
		SecondaryCodes ir.CodeList `json:"secondary_codes"`
		InheritCodes   *ir.Bool    `json:"inherit_codes"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Stage{
		Name:           v.Name,
		Display:        v.Display,
		Codes:          v.Codes,
		SecondaryCodes: v.SecondaryCodes,
		InheritCodes:   boolOr(v.InheritCodes, true),
	}
	return nil
}

// UnmarshalJSON decodes one image of a complex composite toggle.
func (c *CompositeImage) UnmarshalJSON(data []byte) error {
	var v struct {
		Display
		Left  ir.Bool     `json:"left"`
		Right ir.Bool     `json:"right"`
		Codes ir.CodeList `json:"codes"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = CompositeImage{Display: v.Display, Left: bool(v.Left), Right: bool(v.Right), Codes: v.Codes}
	return nil
}

func boolOr(b *ir.Bool, def bool) bool {
	if b == nil {
		return def
	}
	return bool(*b)
}

func intOr(i *ir.Int, def int) int {
	if i == nil {
		return def
	}
	return int(*i)
}
