package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/getmeachai-backend/api/responses"
	"github.com/adityaverma/getmeachai-backend/pkg/config"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/metrics"
)

type paymentConfirmer interface {
	Confirm(ctx context.Context, paymentID uuid.UUID, providerRef, path string) (bool, error)
}

// PaymentSuccess receives the browser coming back from the hosted checkout.
// It confirms the payment if the webhook has not arrived yet and always sends
// the supporter back to the public site, carrying the outcome as a query
// parameter. Redirect responses never expose error internals.
func PaymentSuccess(svc paymentConfirmer, web config.WebConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		redirectTo := sanitizeRedirectPath(r.URL.Query().Get("redirect_to"))

		rawID := strings.TrimSpace(r.URL.Query().Get("payment_id"))
		paymentID, err := uuid.Parse(rawID)
		if err != nil {
			redirectWithError(w, r, web, redirectTo, pkgerrors.CodeValidation)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPaymentID(ctx, paymentID.String())
		}

		// The redirect has no provider reference of its own, so a synthetic
		// one marks the record as confirmed outside the webhook.
		providerRef := fmt.Sprintf("manual_%d", time.Now().UnixMilli())

		won, err := svc.Confirm(ctx, paymentID, providerRef, metrics.PathRedirect)
		if err != nil {
			code := pkgerrors.CodeInternal
			if typed := pkgerrors.As(err); typed != nil {
				code = typed.Code()
			}
			if logg != nil {
				logg.Error(ctx, "redirect confirmation failed", err)
			}
			redirectWithError(w, r, web, redirectTo, code)
			return
		}
		if !won && logg != nil {
			logg.Info(ctx, "redirect confirmation was a no-op, payment already completed")
		}

		http.Redirect(w, r, buildRedirectURL(web, redirectTo, "success", "true"), http.StatusFound)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, web config.WebConfig, path string, code pkgerrors.Code) {
	http.Redirect(w, r, buildRedirectURL(web, path, "error", string(code)), http.StatusFound)
}

func buildRedirectURL(web config.WebConfig, path, key, value string) string {
	target := strings.TrimRight(web.BaseURL, "/") + path
	parsed, err := url.Parse(target)
	if err != nil {
		parsed = &url.URL{Path: path}
	}
	q := parsed.Query()
	q.Set(key, value)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// sanitizeRedirectPath keeps the redirect on the public site. Anything that
// is not a plain absolute path falls back to the landing page.
func sanitizeRedirectPath(raw string) string {
	path := strings.TrimSpace(raw)
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "/"
	}
	if strings.ContainsAny(path, "\\\r\n") {
		return "/"
	}
	return path
}
