package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/grantgate/pkg/logger"
	"github.com/dmitrymomot/grantgate/pkg/redirect"
	"github.com/dmitrymomot/grantgate/pkg/session"
)

const requestFormPath = "/request-a-link-to-sign-in"

// Handler serves the kernel's HTTP surface.
type Handler struct {
	magic     *MagicLinkService
	sso       *SSOService // nil when no issuer is configured
	sessions  *session.Manager
	views     *Views
	sanitizer *redirect.Sanitizer
	cfg       Config
	metrics   *Metrics
	logger    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets a custom logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithSSO enables the SSO routes.
func WithSSO(sso *SSOService) HandlerOption {
	return func(h *Handler) { h.sso = sso }
}

// WithMetrics wires sign-in counters.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates the HTTP handler for both sign-in flows.
func NewHandler(magic *MagicLinkService, sessions *session.Manager, views *Views, sanitizer *redirect.Sanitizer, cfg Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		magic:     magic,
		sessions:  sessions,
		views:     views,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RequestForm renders the sign-in request form. A ?next= query parameter is
// parked in the session so the destination survives the email round-trip.
func (h *Handler) RequestForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Ensure(r.Context(), w, r)
	if err != nil {
		h.serverError(w, "failed to establish session", err)
		return
	}
	if next := r.URL.Query().Get("next"); next != "" {
		sess.Set(SessionKeyNext, h.sanitizer.Sanitize(next, r.Host))
		if err := h.sessions.Save(r.Context(), sess); err != nil {
			h.serverError(w, "failed to save session", err)
			return
		}
	}

	h.renderRequestForm(w, requestFormData{SSOEnabled: h.sso != nil})
}

// RequestLink validates the submitted email, issues a link, dispatches the
// email, and redirects to the check-email page keyed by the link ID.
func (h *Handler) RequestLink(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Ensure(r.Context(), w, r)
	if err != nil {
		h.serverError(w, "failed to establish session", err)
		return
	}

	form := RequestLinkForm{Email: r.PostFormValue("email")}
	if !form.Validate(h.cfg.InternalEmailDomain) {
		h.renderRequestForm(w, requestFormData{Form: form, SSOEnabled: h.sso != nil})
		return
	}

	next, _ := sess.Pop(SessionKeyNext)

	result, err := h.magic.Request(r.Context(), form.Email, next, r.Host)
	if err != nil {
		if errors.Is(err, ErrDeliveryUnavailable) {
			// The link is issued and stays valid; the user just retries.
			_ = h.sessions.Save(r.Context(), sess)
			h.renderRequestForm(w, requestFormData{Form: form, RetriableError: true, SSOEnabled: h.sso != nil})
			return
		}
		h.serverError(w, "failed to issue sign-in link", err)
		return
	}

	sess.Set(sessionKeyHandle, result.Handle)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.serverError(w, "failed to save session", err)
		return
	}

	if h.metrics != nil {
		h.metrics.LinksIssued.Inc()
	}
	http.Redirect(w, r, "/check-your-email/"+result.Link.ID.String(), http.StatusFound)
}

// CheckEmail shows where the link went and when it expires, keyed by the
// link's opaque ID. It answers 404 for missing or unusable links and never
// reveals the code.
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	link, err := h.magic.Link(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil || !link.Usable() {
		http.NotFound(w, r)
		return
	}

	var handle string
	if sess, err := h.sessions.Get(r.Context(), r); err == nil {
		handle, _ = sess.GetString(sessionKeyHandle)
	}

	var emailAddr string
	if link.Email != nil {
		emailAddr = *link.Email
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.render(w, "check_email", checkEmailData{
		Email:     emailAddr,
		ExpiresAt: link.ExpiresAt.UTC().Format("15:04 on 2 January 2006 (UTC)"),
		Handle:    handle,
	}); err != nil {
		h.logger.Error("failed to render view", logger.Error(err), logger.Component("auth_handler"))
	}
}

// ClaimForm renders the confirmation step. The link is consumed only by the
// confirmed POST, so mail scanners and link previewers that follow the URL
// cannot burn the token.
func (h *Handler) ClaimForm(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.magic.Lookup(r.Context(), code)
	if err != nil || !link.Usable() {
		http.Redirect(w, r, requestFormPath, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.render(w, "claim_confirm", claimConfirmData{Code: code}); err != nil {
		h.logger.Error("failed to render view", logger.Error(err), logger.Component("auth_handler"))
	}
}

// Claim atomically consumes the link and signs the user in. Unusable codes
// collapse into one redirect so a caller cannot probe whether a code ever
// existed.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	user, destination, err := h.magic.Claim(r.Context(), chi.URLParam(r, "code"), r.Host)
	if err != nil {
		if IsLinkUnusable(err) {
			h.countClaim(claimOutcome(err))
			http.Redirect(w, r, requestFormPath, http.StatusFound)
			return
		}
		h.countClaim(OutcomeError)
		h.serverError(w, "failed to claim sign-in link", err)
		return
	}

	if err := h.sessions.Authenticate(r.Context(), w, r, user.ID); err != nil {
		h.countClaim(OutcomeRejected)
		h.logger.Error("session bootstrap refused",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth_handler"),
		)
		http.Error(w, "Unable to sign you in", http.StatusBadRequest)
		return
	}

	h.countClaim(OutcomeSuccess)
	http.Redirect(w, r, destination, http.StatusFound)
}

// SSOSignIn initiates the authorization-code flow and redirects to the
// issuer.
func (h *Handler) SSOSignIn(w http.ResponseWriter, r *http.Request) {
	if h.sso == nil {
		http.NotFound(w, r)
		return
	}

	sess, err := h.sessions.Ensure(r.Context(), w, r)
	if err != nil {
		h.serverError(w, "failed to establish session", err)
		return
	}

	next := r.URL.Query().Get("next")
	if next == "" {
		next, _ = sess.Pop(SessionKeyNext)
	}

	authURL, err := h.sso.Initiate(sess, next, r.Host)
	if err != nil {
		h.serverError(w, "failed to initiate sso sign-in", err)
		return
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.serverError(w, "failed to save session", err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// SSOCallback verifies the issuer's response and signs the user in. Every
// verification failure clears the flow context and lands on the request
// form; no session is established.
func (h *Handler) SSOCallback(w http.ResponseWriter, r *http.Request) {
	if h.sso == nil {
		http.NotFound(w, r)
		return
	}

	sess, err := h.sessions.Get(r.Context(), r)
	if err != nil {
		h.countSSO(OutcomeRejected)
		http.Redirect(w, r, requestFormPath, http.StatusFound)
		return
	}

	query := r.URL.Query()
	user, destination, err := h.sso.Callback(r.Context(), sess, query.Get("state"), query.Get("code"))

	// Flow context is popped whatever happened; persist its removal so
	// state and nonce cannot be replayed.
	if saveErr := h.sessions.Save(r.Context(), sess); saveErr != nil {
		h.serverError(w, "failed to save session", saveErr)
		return
	}

	if err != nil {
		h.countSSO(OutcomeRejected)
		h.logger.Warn("sso sign-in failed",
			logger.Error(err),
			logger.Component("auth_handler"),
		)
		http.Redirect(w, r, requestFormPath, http.StatusFound)
		return
	}

	if err := h.sessions.Authenticate(r.Context(), w, r, user.ID); err != nil {
		h.countSSO(OutcomeRejected)
		h.logger.Error("session bootstrap refused",
			logger.UserID(user.ID.String()),
			logger.Error(err),
			logger.Component("auth_handler"),
		)
		http.Error(w, "Unable to sign you in", http.StatusBadRequest)
		return
	}

	h.countSSO(OutcomeSuccess)
	http.Redirect(w, r, h.sanitizer.Sanitize(destination, r.Host), http.StatusFound)
}

// SignOut destroys the session and lands on the application root.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Error("failed to destroy session", logger.Error(err), logger.Component("auth_handler"))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) renderRequestForm(w http.ResponseWriter, data requestFormData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.render(w, "request_form", data); err != nil {
		h.logger.Error("failed to render view", logger.Error(err), logger.Component("auth_handler"))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, logger.Error(err), logger.Component("auth_handler"))
	http.Error(w, "Sorry, there is a problem with the service", http.StatusInternalServerError)
}

func (h *Handler) countClaim(outcome string) {
	if h.metrics != nil {
		h.metrics.ClaimOutcome.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countSSO(outcome string) {
	if h.metrics != nil {
		h.metrics.SSOOutcome.WithLabelValues(outcome).Inc()
	}
}

func claimOutcome(err error) string {
	switch {
	case errors.Is(err, ErrLinkClaimed):
		return OutcomeClaimed
	case errors.Is(err, ErrLinkExpired):
		return OutcomeExpired
	default:
		return OutcomeNotFound
	}
}
