package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Password rules are enforced by the auth service so the console and the
// HTTP API reject the same inputs with the same messages.
type changePasswordRequest struct {
	NewPassword  string `json:"new_password"`
	Confirmation string `json:"confirmation"`
}

type userResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Home     string `json:"home"`
}

type authResponse struct {
	Token              string       `json:"token"`
	User               userResponse `json:"user"`
	MustChangePassword bool         `json:"must_change_pw"`
}

// --- Imports ---

type previewResponse struct {
	Filename string   `json:"filename"`
	Columns  []string `json:"columns"`
	Rows     int      `json:"rows"`
	Preview  []string `json:"preview"`
}

type importResponse struct {
	RunID     string `json:"run_id"`
	Target    string `json:"target"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
}
