package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// OrderKind tells whether a cart holds regular purchases or pre-orders for
// a single event.
type OrderKind string

const (
	OrderKindNone     OrderKind = "NONE"
	OrderKindStandard OrderKind = "STANDARD"
	OrderKindPreorder OrderKind = "PREORDER"
)

// Valid reports whether k is one of the known kinds.
func (k OrderKind) Valid() bool {
	switch k {
	case OrderKindNone, OrderKindStandard, OrderKindPreorder:
		return true
	}
	return false
}

// Transition names the rule AddItem applied.
type Transition string

const (
	TransitionRejected Transition = "rejected"
	TransitionReset    Transition = "reset"
	TransitionMerged   Transition = "merged"
	TransitionAppended Transition = "appended"
)

// CartLine is one product in the cart. A cart never holds two lines with
// the same ProductID.
type CartLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SellerName  string          `json:"seller_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartState is the whole cart of a session. All lines share one OrderKind;
// for pre-orders they also share EventID.
type CartState struct {
	OrderKind OrderKind  `json:"order_kind"`
	EventID   *int64     `json:"event_id"`
	Lines     []CartLine `json:"lines"`
}

// ClearCart returns the empty cart.
func ClearCart() CartState {
	return CartState{OrderKind: OrderKindNone, Lines: []CartLine{}}
}

// IsEmpty reports whether the cart has no lines.
func (s CartState) IsEmpty() bool {
	return len(s.Lines) == 0
}

// AddItem applies item to state and returns the new state. See AddItemResult.
func AddItem(state CartState, item CartLine, kind OrderKind, eventID *int64) CartState {
	next, _ := AddItemResult(state, item, kind, eventID)
	return next
}

// AddItemResult adds item of the given kind to state:
//
//   - a different kind, or a pre-order for another event, replaces the cart
//     with just item;
//   - a product already in the cart has its quantity increased, keeping the
//     existing line's name and price;
//   - anything else is appended.
//
// Items that cannot form a valid line (unknown or NONE kind, a pre-order
// without an event, quantity below 1, negative price) leave state unchanged.
// The input state is never modified.
func AddItemResult(state CartState, item CartLine, kind OrderKind, eventID *int64) (CartState, Transition) {
	if !acceptable(item, kind, eventID) {
		return state, TransitionRejected
	}

	if kind != OrderKindPreorder {
		eventID = nil
	}

	current := state.OrderKind
	if current == "" {
		current = OrderKindNone
	}

	if current != OrderKindNone && current != kind {
		return single(item, kind, eventID), TransitionReset
	}
	if kind == OrderKindPreorder && state.EventID != nil && *state.EventID != *eventID {
		return single(item, kind, eventID), TransitionReset
	}

	lines := slices.Clone(state.Lines)
	if lines == nil {
		lines = []CartLine{}
	}

	next := CartState{OrderKind: kind, EventID: copyID(eventID), Lines: lines}

	if i := indexOf(lines, item.ProductID); i >= 0 {
		lines[i].Quantity += item.Quantity
		return next, TransitionMerged
	}

	next.Lines = append(lines, item)
	return next, TransitionAppended
}

// RemoveItem drops the line for productID. The kind and event stay even when
// the cart becomes empty; only ClearCart resets them.
func RemoveItem(state CartState, productID int64) CartState {
	lines := make([]CartLine, 0, len(state.Lines))
	for _, l := range state.Lines {
		if l.ProductID != productID {
			lines = append(lines, l)
		}
	}
	return CartState{
		OrderKind: state.OrderKind,
		EventID:   copyID(state.EventID),
		Lines:     lines,
	}
}

// TotalPrice is the exact sum of all line subtotals.
func TotalPrice(state CartState) decimal.Decimal {
	total := decimal.Zero
	for _, l := range state.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of all quantities.
func ItemCount(state CartState) int {
	n := 0
	for _, l := range state.Lines {
		n += l.Quantity
	}
	return n
}

// ErrInvalidCart is wrapped by every Validate failure.
var ErrInvalidCart = errors.New("invalid cart state")

// Validate checks a state read back from storage.
func Validate(state CartState) error {
	if !state.OrderKind.Valid() {
		return fmt.Errorf("%w: unknown order kind %q", ErrInvalidCart, state.OrderKind)
	}
	if state.OrderKind == OrderKindPreorder && state.EventID == nil {
		return fmt.Errorf("%w: preorder cart without event", ErrInvalidCart)
	}
	if state.OrderKind == OrderKindNone && len(state.Lines) > 0 {
		return fmt.Errorf("%w: cart without kind has %d lines", ErrInvalidCart, len(state.Lines))
	}

	seen := make(map[int64]struct{}, len(state.Lines))
	for _, l := range state.Lines {
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %d", ErrInvalidCart, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: product %d has quantity %d", ErrInvalidCart, l.ProductID, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: product %d has negative price", ErrInvalidCart, l.ProductID)
		}
	}
	return nil
}

func acceptable(item CartLine, kind OrderKind, eventID *int64) bool {
	switch kind {
	case OrderKindStandard:
	case OrderKindPreorder:
		if eventID == nil {
			return false
		}
	default:
		return false
	}
	return item.Quantity >= 1 && !item.UnitPrice.IsNegative()
}

func single(item CartLine, kind OrderKind, eventID *int64) CartState {
	return CartState{OrderKind: kind, EventID: copyID(eventID), Lines: []CartLine{item}}
}

func indexOf(lines []CartLine, productID int64) int {
	return slices.IndexFunc(lines, func(l CartLine) bool { return l.ProductID == productID })
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
