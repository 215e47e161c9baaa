package domain

type ctxKey string

// RequesterIdCtxKey holds the authenticated subject id of the caller, when a
// request carried a valid token.
const RequesterIdCtxKey ctxKey = "requesterId"

const (
	// VeilshelfSubject is the expected JWT subject for ledger submissions.
	VeilshelfSubject = "veilshelf"
)
