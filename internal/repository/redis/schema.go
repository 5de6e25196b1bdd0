package redis

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Ado-go/farmly-sub001/internal/domain"
)

const cartSchemaURL = "farmly://schemas/cart-state.json"

const cartSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["order_kind", "lines"],
  "properties": {
    "order_kind": {"enum": ["NONE", "STANDARD", "PREORDER"]},
    "event_id": {"type": ["integer", "null"]},
    "lines": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["product_id", "unit_price", "quantity"],
        "properties": {
          "product_id": {"type": "integer"},
          "product_name": {"type": "string"},
          "seller_name": {"type": "string"},
          "unit_price": {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"},
          "quantity": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var cartSchema = jsonschema.MustCompileString(cartSchemaURL, cartSchemaJSON)

// decodeCart parses a stored blob. The blob must match the cart schema and
// the decoded state must pass domain.Validate; every failure wraps
// domain.ErrInvalidCart.
func decodeCart(data []byte) (domain.CartState, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.CartState{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	if err := cartSchema.Validate(raw); err != nil {
		return domain.CartState{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}

	var state domain.CartState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.CartState{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	if state.Lines == nil {
		state.Lines = []domain.CartLine{}
	}
	if err := domain.Validate(state); err != nil {
		return domain.CartState{}, err
	}
	return state, nil
}
