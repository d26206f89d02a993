package identity

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"cluster_kita/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeaders(t *testing.T, w *WebhookVerifier, id string, ts time.Time, body []byte) http.Header {
	t.Helper()
	sig, err := w.Sign(id, ts, body)
	require.NoError(t, err)
	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, sig)
	return h
}

func TestWebhookVerify(t *testing.T) {
	w, err := NewWebhookVerifier("whsec_" + base64.StdEncoding.EncodeToString([]byte("webhook-key")))
	require.NoError(t, err)
	now := time.Now()
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)

	h := signedHeaders(t, w, "msg_1", now, body)
	assert.NoError(t, w.Verify(h, body))

	multi := h.Clone()
	multi.Set(HeaderSignature, "v1,bm9wZQ== "+h.Get(HeaderSignature))
	assert.NoError(t, w.Verify(multi, body), "any listed signature may match")

	missing := h.Clone()
	missing.Del(HeaderID)
	assert.ErrorIs(t, w.Verify(missing, body), ErrMissingHeaders)

	assert.ErrorIs(t, w.Verify(h, []byte(`{"tampered":true}`)), domain.ErrInvalidSignature)

	otherID := h.Clone()
	otherID.Set(HeaderID, "msg_2")
	assert.ErrorIs(t, w.Verify(otherID, body), domain.ErrInvalidSignature)

	old := signedHeaders(t, w, "msg_1", now.Add(-10*time.Minute), body)
	assert.ErrorIs(t, w.Verify(old, body), domain.ErrInvalidSignature)
}

func TestWebhookSecretMustDecode(t *testing.T) {
	_, err := NewWebhookVerifier("")
	assert.Error(t, err)
	_, err = NewWebhookVerifier("whsec_%%%")
	assert.Error(t, err)
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"event_type": "user.updated",
		"data": {
			"id": "user_1",
			"first_name": "Siti",
			"last_name": "Aminah",
			"email_addresses": [{"email_address": "siti@example.com"}],
			"phone_numbers": [{"phone_number": "+628123"}]
		}
	}`)
	evt, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventUserUpdated, evt.Kind())

	p := evt.Data.Profile()
	assert.Equal(t, "Siti Aminah", p.Name)
	assert.Equal(t, "siti@example.com", p.Email)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+628123", *p.Phone)
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "budi", displayName("", " ", "budi"))
	assert.Equal(t, "User", displayName("", "", ""))
	assert.Equal(t, "Ani", displayName("Ani", "", "ani99"))
}

func TestParseEventRequiresUserID(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"user.created","data":{}}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
