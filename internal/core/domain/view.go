package domain

// View is a screen the presentation layer may request.
type View string

const (
	ViewRoot      View = "root"
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewAdmin     View = "admin"
)

// Paths the guard redirects to.
const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
)

// Decision is the outcome of a guard check. When Allowed is false, Redirect
// holds the path the caller should be sent to instead.
type Decision struct {
	View     View   `json:"view"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}
