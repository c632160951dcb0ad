package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; nothing here legitimately needs more.
const maxBodyBytes = 1 << 20

// writeJSON renders the object built by fill with status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, fill func(e *jx.Encoder)) {
	var e jx.Encoder
	fill(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

// writeError renders the standard error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(code)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// decodeBody reads the request body and hands it to parse as a jx decoder.
func decodeBody(w http.ResponseWriter, r *http.Request, parse func(d *jx.Decoder) error) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "cannot read request body")
		return false
	}
	if err := parse(jx.DecodeBytes(body)); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body: "+err.Error())
		return false
	}
	return true
}

// encodeDecimal writes a decimal as a raw JSON number.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// decodeDecimal reads a JSON number (or numeric string) into a decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	// Num keeps the raw token; a string-wrapped number keeps its quotes.
	return decimal.NewFromString(strings.Trim(n.String(), `"`))
}
