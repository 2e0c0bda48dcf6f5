package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	stripesdk "github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/metrics"
)

type fakeConfirmer struct {
	calls []confirmCall
	won   bool
	err   error
}

type confirmCall struct {
	paymentID   uuid.UUID
	providerRef string
	path        string
}

func (f *fakeConfirmer) Confirm(ctx context.Context, paymentID uuid.UUID, providerRef, path string) (bool, error) {
	f.calls = append(f.calls, confirmCall{paymentID, providerRef, path})
	return f.won, f.err
}

func newTestService(t *testing.T, confirmer paymentConfirmer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Payments: confirmer,
		Logger:   logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func checkoutCompletedEvent(t *testing.T, paymentID uuid.UUID, withIntent bool) *stripesdk.Event {
	t.Helper()
	session := map[string]any{
		"id":       "cs_test_1",
		"metadata": map[string]string{"payment_id": paymentID.String()},
	}
	if withIntent {
		session["payment_intent"] = map[string]any{"id": "pi_test_1"}
	}
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripesdk.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripesdk.EventTypeCheckoutSessionCompleted,
		Data: &stripesdk.EventData{Raw: raw},
	}
}

func TestHandleEventConfirmsWithPaymentIntent(t *testing.T) {
	confirmer := &fakeConfirmer{won: true}
	svc := newTestService(t, confirmer)
	paymentID := uuid.New()

	if err := svc.HandleEvent(context.Background(), checkoutCompletedEvent(t, paymentID, true)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(confirmer.calls) != 1 {
		t.Fatalf("expected one confirm call, got %d", len(confirmer.calls))
	}
	call := confirmer.calls[0]
	if call.paymentID != paymentID {
		t.Fatalf("wrong payment id %s", call.paymentID)
	}
	if call.providerRef != "pi_test_1" {
		t.Fatalf("expected payment intent reference, got %s", call.providerRef)
	}
	if call.path != metrics.PathWebhook {
		t.Fatalf("expected webhook path label, got %s", call.path)
	}
}

func TestHandleEventFallsBackToSessionID(t *testing.T) {
	confirmer := &fakeConfirmer{won: true}
	svc := newTestService(t, confirmer)

	if err := svc.HandleEvent(context.Background(), checkoutCompletedEvent(t, uuid.New(), false)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if confirmer.calls[0].providerRef != "cs_test_1" {
		t.Fatalf("expected session id fallback, got %s", confirmer.calls[0].providerRef)
	}
}

func TestHandleEventAlreadyCompletedIsNoOp(t *testing.T) {
	confirmer := &fakeConfirmer{won: false}
	svc := newTestService(t, confirmer)

	if err := svc.HandleEvent(context.Background(), checkoutCompletedEvent(t, uuid.New(), true)); err != nil {
		t.Fatalf("duplicate delivery must succeed, got %v", err)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	confirmer := &fakeConfirmer{}
	svc := newTestService(t, confirmer)

	event := &stripesdk.Event{
		Type: stripesdk.EventTypeInvoicePaid,
		Data: &stripesdk.EventData{Raw: []byte(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unrelated events must be acknowledged, got %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatal("unrelated events must not confirm anything")
	}
}

func TestHandleEventMissingMetadata(t *testing.T) {
	svc := newTestService(t, &fakeConfirmer{})

	event := &stripesdk.Event{
		Type: stripesdk.EventTypeCheckoutSessionCompleted,
		Data: &stripesdk.EventData{Raw: []byte(`{"id":"cs_x","metadata":{}}`)},
	}
	err := svc.HandleEvent(context.Background(), event)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventPropagatesConfirmErrors(t *testing.T) {
	confirmer := &fakeConfirmer{err: pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")}
	svc := newTestService(t, confirmer)

	err := svc.HandleEvent(context.Background(), checkoutCompletedEvent(t, uuid.New(), true))
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type fakeIdempotencyStore struct {
	seen   map[string]bool
	setErr error
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "chai:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

func TestIdempotencyGuardMarksAndDetectsReplay(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe_webhook")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not be marked as seen")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark replay: %v", err)
	}
	if !seen {
		t.Fatal("replay must be detected")
	}
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	guard, _ := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe_webhook")
	ctx := context.Background()

	_, _ = guard.CheckAndMark(ctx, "evt_2")
	if err := guard.Delete(ctx, "evt_2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seen, err := guard.CheckAndMark(ctx, "evt_2")
	if err != nil {
		t.Fatalf("CheckAndMark after delete: %v", err)
	}
	if seen {
		t.Fatal("deleted marker must allow a retry")
	}
}
