package auth

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed views/*.html
var viewsFS embed.FS

// Views renders the kernel's server-side pages. Each page template defines
// "title" and "content" blocks slotted into the shared layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded page templates.
func NewViews() (*Views, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"request_form", "check_email", "claim_confirm"} {
		t, err := template.ParseFS(viewsFS, "views/layout.html", "views/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse view %q: %w", name, err)
		}
		pages[name] = t
	}
	return &Views{pages: pages}, nil
}

// MustNewViews parses the views or panics; templates are embedded, so a
// failure is a programming error caught at startup.
func MustNewViews() *Views {
	v, err := NewViews()
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Views) render(w io.Writer, page string, data any) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown view %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// requestFormData feeds the sign-in request form.
type requestFormData struct {
	Form           RequestLinkForm
	RetriableError bool
	SSOEnabled     bool
}

// checkEmailData feeds the check-your-email page.
type checkEmailData struct {
	Email     string
	ExpiresAt string
	Handle    string
}

// claimConfirmData feeds the claim confirmation page.
type claimConfirmData struct {
	Code string
}
