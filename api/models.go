package api

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is returned from GET /session and streamed by
// GET /session/watch. Timestamps are Unix milliseconds.
type SessionResponse struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	Method          *string `json:"method"`
	LastAuthAt      *int64  `json:"lastAuthAt"`
	ExpiresAt       *int64  `json:"expiresAt"`
}

// UnlockRequest is the optional JSON body for POST /unlock.
type UnlockRequest struct {
	Reason string `json:"reason,omitempty"`
}

// UnlockResponse is returned from POST /unlock.
type UnlockResponse struct {
	OK bool `json:"ok"`
}

// PinStatusResponse is returned from GET /pin.
type PinStatusResponse struct {
	Configured bool `json:"configured"`
}

// SetPINRequest is the JSON body for PUT /pin.
type SetPINRequest struct {
	PIN string `json:"pin"`
}

// ChallengeResponse is returned from GET /pin/challenge.
type ChallengeResponse struct {
	Pending bool   `json:"pending"`
	ID      string `json:"id"`
}

// SubmitPINRequest is the JSON body for POST /pin/submit. An empty ID
// answers whichever challenge is pending.
type SubmitPINRequest struct {
	ID  string `json:"id,omitempty"`
	PIN string `json:"pin"`
}

// SubmitPINResponse is returned from POST /pin/submit.
type SubmitPINResponse struct {
	Accepted bool `json:"accepted"`
}

// CancelChallengeRequest is the optional JSON body for POST /pin/cancel.
type CancelChallengeRequest struct {
	ID string `json:"id,omitempty"`
}

// AuditListResponse is returned from GET /audit, newest entry first.
type AuditListResponse struct {
	Entries []AuditEntry `json:"entries"`
	Page
}
