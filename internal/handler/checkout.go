package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/payment"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

// OpenSession creates a checkout session for the customer and returns its id.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var customerID string
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "customer_id":
				var err error
				customerID, err = d.Str()
				return err
			default:
				return d.Skip()
			}
		})
	})
	if !ok {
		return
	}
	if customerID == "" {
		writeError(w, r, http.StatusBadRequest, "bad_request", "customer_id is required")
		return
	}

	id, s, err := h.sessions.Open(r.Context(), customerID)
	if err != nil {
		mapError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("session_id")
		e.Str(id)
		e.FieldStart("step")
		e.Str(string(s.Step()))
		e.ObjEnd()
	})
}

// GetSession returns the full session state: step, cart, pricing, payments.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// CloseSession discards the session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// AddItem admits a product into the session's cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  int
		notes     string
		optionIDs []string
	)
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				productID, err = d.Str()
			case "quantity":
				quantity, err = d.Int()
			case "notes":
				notes, err = d.Str()
			case "option_ids":
				err = d.Arr(func(d *jx.Decoder) error {
					id, err := d.Str()
					if err != nil {
						return err
					}
					optionIDs = append(optionIDs, id)
					return nil
				})
			default:
				err = d.Skip()
			}
			return err
		})
	})
	if !ok {
		return
	}

	p, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		mapError(w, r, err)
		return
	}

	opts, err := selectOptions(p, optionIDs)
	if err != nil {
		mapError(w, r, err)
		return
	}

	err = h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.Cart().AddItem(*p, quantity, notes, opts...); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// selectOptions resolves option ids against the product's option list.
func selectOptions(p *catalog.Product, ids []string) ([]catalog.Option, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[string]catalog.Option, len(p.Options))
	for _, opt := range p.Options {
		byID[opt.ID] = opt
	}
	opts := make([]catalog.Option, 0, len(ids))
	for _, id := range ids {
		opt, ok := byID[id]
		if !ok {
			return nil, catalog.ErrNotFound
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// UpdateQuantity applies a quantity delta to a cart row.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	var delta int
	ok = decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "delta":
				var err error
				delta, err = d.Int()
				return err
			default:
				return d.Skip()
			}
		})
	})
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.Cart().UpdateQuantity(index, delta); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// RemoveItem removes a cart row.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.Cart().RemoveItem(index); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// Advance moves the session forward one step; from the payment step it
// submits the order.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		orderID, err := s.Advance(r.Context())
		if err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("step")
			e.Str(string(s.Step()))
			if orderID != "" {
				e.FieldStart("order_id")
				e.Str(orderID)
			}
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// Back moves the session one step backward; from the bag step it closes
// the session.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.sessions.With(id, func(s *checkout.Session) error {
		closed := s.Back()
		if closed {
			defer h.sessions.Close(id)
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("step")
			e.Str(string(s.Step()))
			e.FieldStart("closed")
			e.Bool(closed)
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// SetFulfillment records the fulfillment choice plus its dependent fields.
func (h *Handler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	var (
		fulfillment string
		address     string
		tableID     string
		scheduled   bool
		slot        string
	)
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "type":
				fulfillment, err = d.Str()
			case "address":
				address, err = d.Str()
			case "table":
				tableID, err = d.Str()
			case "scheduled":
				scheduled, err = d.Bool()
			case "slot":
				slot, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		})
	})
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		s.SetFulfillment(pricing.Fulfillment(fulfillment))
		if address != "" {
			s.SetAddress(address)
		}
		if tableID != "" {
			s.SetTable(tableID)
		}
		s.SetScheduled(scheduled, slot)
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// SetIdentity records the name and phone edited on the identity step.
func (h *Handler) SetIdentity(w http.ResponseWriter, r *http.Request) {
	var name, phone string
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				name, err = d.Str()
			case "phone":
				phone, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		})
	})
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		s.SetIdentity(name, phone)
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// ApplyCoupon applies (or clears, with an empty code) the session coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "code":
				var err error
				code, err = d.Str()
				return err
			default:
				return d.Skip()
			}
		})
	})
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.ApplyCoupon(r.Context(), code); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// ToggleRedeemPoints flips the loyalty redemption flag.
func (h *Handler) ToggleRedeemPoints(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		redeeming := s.ToggleRedeemPoints()
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("redeem_points")
			e.Bool(redeeming)
			e.FieldStart("pricing")
			encodeBreakdown(e, s.Pricing())
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// ListSlots returns the valid scheduled slots for right now.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		slots := s.Slots()
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("slots")
			e.ArrStart()
			for _, slot := range slots {
				e.Str(slot)
			}
			e.ArrEnd()
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// QuoteDeliveryFee fetches a live delivery fee for the session address.
func (h *Handler) QuoteDeliveryFee(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		q, err := s.QuoteDeliveryFee(r.Context())
		if err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("fee")
			encodeDecimal(e, q.Fee)
			e.FieldStart("distance_km")
			e.Float64(q.DistanceKm)
			e.FieldStart("duration")
			e.Str(q.DurationText)
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// AddPayment appends a payment to the session ledger.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var (
		method string
		amount decimal.Decimal
	)
	ok := decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "method":
				method, err = d.Str()
			case "amount":
				amount, err = decodeDecimal(d)
			default:
				err = d.Skip()
			}
			return err
		})
	})
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.AddPayment(payment.Method(method), amount); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodePayments(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// RemovePayment removes the payment at index from the session ledger.
func (h *Handler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	err := h.sessions.With(r.PathValue("id"), func(s *checkout.Session) error {
		if err := s.RemovePayment(index); err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
			encodePayments(e, s)
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// Finalize submits the order and returns its id.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.sessions.With(id, func(s *checkout.Session) error {
		orderID, err := s.Finalize(r.Context())
		if err != nil {
			return err
		}
		defer h.sessions.Close(id)
		writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("order_id")
			e.Str(orderID)
			e.ObjEnd()
		})
		return nil
	})
	if err != nil {
		mapError(w, r, err)
	}
}

// pathIndex parses the {index} path segment.
func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "index must be an integer")
		return 0, false
	}
	return index, true
}

// encodeSession renders the full session view.
func encodeSession(e *jx.Encoder, s *checkout.Session) {
	e.ObjStart()
	e.FieldStart("step")
	e.Str(string(s.Step()))
	e.FieldStart("direction")
	e.Str(string(s.Direction()))
	e.FieldStart("fulfillment")
	e.Str(string(s.Fulfillment()))

	e.FieldStart("items")
	e.ArrStart()
	for _, li := range s.Cart().Items() {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(li.ProductID)
		e.FieldStart("name")
		e.Str(li.ProductName)
		e.FieldStart("unit_price")
		encodeDecimal(e, li.UnitPrice)
		e.FieldStart("base_price")
		encodeDecimal(e, li.BasePrice)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		if li.Notes != "" {
			e.FieldStart("notes")
			e.Str(li.Notes)
		}
		e.FieldStart("takeout")
		e.Bool(li.IsTakeout)
		if len(li.Options) > 0 {
			e.FieldStart("options")
			e.ArrStart()
			for _, opt := range li.Options {
				e.ObjStart()
				e.FieldStart("id")
				e.Str(opt.ID)
				e.FieldStart("name")
				e.Str(opt.Name)
				e.FieldStart("price")
				encodeDecimal(e, opt.Price)
				e.ObjEnd()
			}
			e.ArrEnd()
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	if c := s.AppliedCoupon(); c != nil {
		e.FieldStart("coupon")
		e.Str(c.Code)
	}

	e.FieldStart("pricing")
	encodeBreakdown(e, s.Pricing())
	e.ObjEnd()
}

// encodeBreakdown renders the pricing decomposition.
func encodeBreakdown(e *jx.Encoder, b pricing.Breakdown) {
	e.ObjStart()
	e.FieldStart("subtotal")
	encodeDecimal(e, b.Subtotal)
	e.FieldStart("delivery_fee")
	encodeDecimal(e, b.DeliveryFee)
	e.FieldStart("coupon_discount")
	encodeDecimal(e, b.CouponDiscount)
	e.FieldStart("loyalty_discount")
	encodeDecimal(e, b.LoyaltyDiscount)
	e.FieldStart("total")
	encodeDecimal(e, b.FinalTotal)
	e.ObjEnd()
}

// encodePayments renders the ledger with the dues against the current total.
func encodePayments(e *jx.Encoder, s *checkout.Session) {
	total := s.Pricing().FinalTotal
	ledger := s.Payments()

	e.ObjStart()
	e.FieldStart("payments")
	e.ArrStart()
	for _, tx := range ledger.Transactions() {
		e.ObjStart()
		e.FieldStart("method")
		e.Str(string(tx.Method))
		e.FieldStart("amount")
		encodeDecimal(e, tx.Amount)
		e.FieldStart("at")
		e.Str(tx.At.Format("2006-01-02T15:04:05Z07:00"))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total_paid")
	encodeDecimal(e, ledger.TotalPaid())
	e.FieldStart("remaining_due")
	encodeDecimal(e, ledger.RemainingDue(total))
	e.FieldStart("change_due")
	encodeDecimal(e, ledger.ChangeDue(total))
	e.ObjEnd()
}
