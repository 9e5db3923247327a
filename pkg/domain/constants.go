package domain

// Reserved exit codes. Applications must use codes at or above ExitCustomBase.
const (
	ExitSuccess         = 0
	ExitFailure         = 1
	ExitIdleSuccess     = 2
	ExitInputFailure    = 3
	ExitDatabaseFailure = 4
	ExitIOFailure       = 5
	ExitMemoryFailure   = 6

	ExitCustomBase = 100
)

// Well-known keys in the data accumulator and the session.
const (
	// KeyMessages is the session key holding messages awaiting display,
	// and the data key they are flushed into on HTML render.
	KeyMessages = "_messages"

	// KeyPermissions is the data key holding the caller's permission tokens on HTML render.
	KeyPermissions = "_permissions"

	// KeyError is the data key read for failure messages and written on error renders.
	KeyError = "error"
)

// Session keys read by the session authenticator.
const (
	// KeyUser holds the authenticated user name.
	KeyUser = "_user"

	// KeyGrants holds the permission tokens granted to the user.
	KeyGrants = "_grants"
)
