package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
)

const testSigningSecret = "whsec_test_secret"

type stubWebhookService struct {
	events []*stripe.Event
	err    error
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	s.events = append(s.events, event)
	return s.err
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
	markErr error
}

func (g *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g.markErr != nil {
		return false, g.markErr
	}
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[eventID] {
		return true, nil
	}
	g.seen[eventID] = true
	return false, nil
}

func (g *stubGuard) Delete(ctx context.Context, eventID string) error {
	g.deleted = append(g.deleted, eventID)
	delete(g.seen, eventID)
	return nil
}

type stubStripeClient struct {
	secret string
}

func (s stubStripeClient) SigningSecret() string {
	return s.secret
}

func signPayload(payload string, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(id string) string {
	// ConstructEvent rejects events minted against a different API version.
	return `{"id":"` + id + `","object":"event","api_version":"` + stripe.APIVersion + `","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","metadata":{"payment_id":"b3b8f2f0-0000-4000-8000-000000000000"}}}}`
}

func postWebhook(t *testing.T, handler http.HandlerFunc, payload, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestStripeWebhookProcessesSignedEvent(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubStripeClient{secret: testSigningSecret}, guard, nil)

	payload := eventPayload("evt_1")
	resp := postWebhook(t, handler, payload, signPayload(payload, testSigningSecret))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].ID != "evt_1" {
		t.Fatalf("event not handled: %+v", svc.events)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{}
	handler := StripeWebhook(svc, stubStripeClient{secret: testSigningSecret}, &stubGuard{}, nil)

	payload := eventPayload("evt_2")
	resp := postWebhook(t, handler, payload, signPayload(payload, "whsec_wrong"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), string(pkgerrors.CodeVerification)) {
		t.Fatalf("expected verification error code: %s", resp.Body.String())
	}
	if len(svc.events) != 0 {
		t.Fatal("unverified event must not be handled")
	}
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	handler := StripeWebhook(&stubWebhookService{}, stubStripeClient{secret: testSigningSecret}, &stubGuard{}, nil)

	resp := postWebhook(t, handler, eventPayload("evt_3"), "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStripeWebhookReplayIsAcknowledged(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubStripeClient{secret: testSigningSecret}, guard, nil)

	payload := eventPayload("evt_4")
	first := postWebhook(t, handler, payload, signPayload(payload, testSigningSecret))
	second := postWebhook(t, handler, payload, signPayload(payload, testSigningSecret))

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200/200 got %d/%d", first.Code, second.Code)
	}
	if len(svc.events) != 1 {
		t.Fatalf("replay must not reprocess, handled %d times", len(svc.events))
	}
}

func TestStripeWebhookReleasesMarkerOnHandlerError(t *testing.T) {
	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodePersistence, "storage unavailable")}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubStripeClient{secret: testSigningSecret}, guard, nil)

	payload := eventPayload("evt_5")
	resp := postWebhook(t, handler, payload, signPayload(payload, testSigningSecret))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt_5" {
		t.Fatalf("marker must be released for retry: %+v", guard.deleted)
	}
}

func TestStripeWebhookAcceptsUnsignedWhenSecretMissing(t *testing.T) {
	svc := &stubWebhookService{}
	handler := StripeWebhook(svc, stubStripeClient{secret: ""}, &stubGuard{}, nil)

	resp := postWebhook(t, handler, eventPayload("evt_6"), "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.events) != 1 {
		t.Fatal("event must be handled without verification in dev mode")
	}
}

func TestStripeWebhookIdempotencyStoreFailure(t *testing.T) {
	guard := &stubGuard{markErr: fmt.Errorf("redis down")}
	handler := StripeWebhook(&stubWebhookService{}, stubStripeClient{secret: testSigningSecret}, guard, nil)

	payload := eventPayload("evt_7")
	resp := postWebhook(t, handler, payload, signPayload(payload, testSigningSecret))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
