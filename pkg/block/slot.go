package block

import (
	"encoding/json"

	"github.com/conneroisu/statickit/pkg/address"
)

// SlotErrorType classifies a failed slot resolution.
type SlotErrorType string

// Slot error types carried by the dev marker.
const (
	SlotNotFound   SlotErrorType = "not-found"
	SlotValidation SlotErrorType = "validation"
	// SlotRender marks a block whose render function failed. Only the page
	// renderer reports it.
	SlotRender SlotErrorType = "render"
)

// SlotError is the payload of a dev-mode slot diagnostic marker.
type SlotError struct {
	Type      SlotErrorType   `json:"type"`
	BlockType string          `json:"blockType"`
	Addr      address.Address `json:"addr"`
	Details   string          `json:"details,omitempty"`
}

// SlotErrorAttr marks the inert script element that carries a SlotError.
const SlotErrorAttr = "data-slot-error"

// RenderSlot delegates rendering to the block registered as blockType in
// ctx.Blocks. An empty blockType renders the fallback. An unknown type or
// props that fail validation also render the fallback, preceded in dev mode
// by a diagnostic marker. The fallback is only called when it is used.
func RenderSlot(blockType string, props any, ctx Context, addr address.Address, fallback func() string) string {
	if blockType == "" {
		return callFallback(fallback)
	}

	var (
		def Definition
		ok  bool
	)
	if ctx.Blocks != nil {
		def, ok = ctx.Blocks.Get(blockType)
	}
	if !ok {
		return slotFailure(ctx, SlotError{Type: SlotNotFound, BlockType: blockType, Addr: addr}, fallback)
	}

	validated, issues := def.Validate(props)
	if len(issues) > 0 {
		return slotFailure(ctx, SlotError{
			Type:      SlotValidation,
			BlockType: blockType,
			Addr:      addr,
			Details:   issues.Error(),
		}, fallback)
	}

	return def.Render(Input{Props: validated, Ctx: ctx, Addr: addr})
}

func slotFailure(ctx Context, se SlotError, fallback func() string) string {
	if !ctx.IsDev {
		return callFallback(fallback)
	}

	return SlotErrorMarker(se) + callFallback(fallback)
}

func callFallback(fallback func() string) string {
	if fallback == nil {
		return ""
	}

	return fallback()
}

// SlotErrorMarker renders se as an inert JSON script element. The JSON is
// HTML-escaped so the payload cannot close the element early.
func SlotErrorMarker(se SlotError) string {
	payload, err := json.Marshal(se)
	if err != nil {
		payload = []byte(`{"type":"` + string(se.Type) + `"}`)
	}

	return `<script type="application/json" ` + SlotErrorAttr + `>` + EscapeHTML(string(payload)) + `</script>`
}
