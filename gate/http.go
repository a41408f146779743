package gate

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

var lockedPage = template.Must(template.New("locked").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Locked</title>
</head>
<body>
  <main>
    <h1>Originals are locked</h1>
    <p>Unlock with your fingerprint or PIN to view this content.</p>
    <form method="post" action="{{.Action}}">
      <input type="hidden" name="return_to" value="{{.ReturnTo}}">
      <button type="submit">Unlock</button>
    </form>
  </main>
</body>
</html>
`))

type lockedView struct {
	Action   string
	ReturnTo string
}

// Middleware serves next while the session is valid and a 423 locked page
// otherwise. Protected responses are marked uncacheable.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if g.Allowed() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusLocked)
		view := lockedView{Action: g.unlockPath, ReturnTo: r.URL.RequestURI()}
		if err := lockedPage.Execute(w, view); err != nil {
			slog.Warn("rendering locked page", slog.String("error", err.Error()))
		}
	})
}

// UnlockHandler handles the locked page form: it runs Unlock for the
// request and then redirects back to return_to. The request blocks for as
// long as the attempt takes.
func (g *Gate) UnlockHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		g.Unlock(r.Context())
		http.Redirect(w, r, safeReturnTo(r.PostFormValue("return_to")), http.StatusSeeOther)
	})
}

// safeReturnTo only allows same-origin absolute paths.
func safeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}
