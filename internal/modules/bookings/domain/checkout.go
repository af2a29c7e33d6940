package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader   = "Stripe-Signature"
	CheckoutCompleted = "checkout.session.completed"

	DefaultTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("no signatures found matching the expected signature for payload")
	ErrMalformedHeader  = errors.New("unable to extract timestamp and signatures from header")
	ErrStaleTimestamp   = errors.New("timestamp outside the tolerance zone")
)

// Sign builds the signature header for payload sent at the given time.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, signature(ts, payload, secret))
}

func signature(ts string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "t=<unix>,v1=<hex>[,v1=<hex>]" header against
// payload. A zero tolerance disables the timestamp check.
func VerifySignature(header string, payload []byte, secret string, tolerance time.Duration, now time.Time) error {
	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || len(candidates) == 0 {
		return ErrMalformedHeader
	}

	expected := []byte(signature(ts, payload, secret))
	matched := false
	for _, candidate := range candidates {
		if hmac.Equal(expected, []byte(candidate)) {
			matched = true
			break
		}
	}
	if !matched {
		return ErrMissingSignature
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return ErrStaleTimestamp
		}
	}
	return nil
}

// CheckoutEvent is the subset of a payment webhook event a booking needs.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	AmountTotal       int64  `json:"amount_total"`
}

// Price converts the amount in cents.
func (s CheckoutSession) Price() float64 {
	return float64(s.AmountTotal) / 100
}

func ParseCheckoutEvent(payload []byte) (CheckoutEvent, error) {
	var event CheckoutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return CheckoutEvent{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return event, nil
}
