package auth

import "github.com/go-chi/chi/v5"

// Router mounts the kernel's HTTP surface. Paths are canonical: the claim
// URL shape is baked into every sign-in email already in flight.
func Router(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/request-a-link-to-sign-in", h.RequestForm)
	r.Post("/request-a-link-to-sign-in", h.RequestLink)
	r.Get("/check-your-email/{linkID}", h.CheckEmail)
	r.Get("/sign-in/{code}", h.ClaimForm)
	r.Post("/sign-in/{code}", h.Claim)
	r.Get("/sso-sign-in", h.SSOSignIn)
	r.Get("/sso-get-token", h.SSOCallback)
	r.Get("/sign-out", h.SignOut)

	return r
}
