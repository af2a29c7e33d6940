package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

func TestVerifySignature(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"type":"checkout.session.completed"}`)
	valid := Sign(payload, secret, now)

	tests := []struct {
		name    string
		header  string
		payload []byte
		secret  string
		at      time.Time
		want    error
	}{
		{name: "valid", header: valid, payload: payload, secret: secret, at: now},
		{name: "valid among several", header: valid + ",v1=deadbeef", payload: payload, secret: secret, at: now},
		{name: "tampered body", header: valid, payload: []byte(`{"type":"other"}`), secret: secret, at: now, want: ErrMissingSignature},
		{name: "wrong secret", header: valid, payload: payload, secret: "other", at: now, want: ErrMissingSignature},
		{name: "stale", header: valid, payload: payload, secret: secret, at: now.Add(10 * time.Minute), want: ErrStaleTimestamp},
		{name: "empty header", header: "", payload: payload, secret: secret, at: now, want: ErrMalformedHeader},
		{name: "no signature", header: "t=1714564800", payload: payload, secret: secret, at: now, want: ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.header, tt.payload, tt.secret, DefaultTolerance, tt.at)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifySignatureWithoutTolerance(t *testing.T) {
	payload := []byte(`{}`)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, VerifySignature(Sign(payload, secret, old), payload, secret, 0, time.Now()))
}

func TestParseCheckoutEvent(t *testing.T) {
	event, err := ParseCheckoutEvent([]byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "client_reference_id": "5c88fa8cf4afda39709c2955", "customer_email": "laura@example.io", "amount_total": 49700}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, CheckoutCompleted, event.Type)
	assert.Equal(t, "laura@example.io", event.Data.Object.CustomerEmail)
	assert.Equal(t, 497.0, event.Data.Object.Price())

	_, err = ParseCheckoutEvent([]byte(`not json`))
	assert.Error(t, err)
}
