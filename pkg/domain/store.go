package domain

import "fmt"

// StoreKind names one of the key/value stores a slice can bind to.
type StoreKind int

const (
	// StoreRequest holds the sanitized request parameters.
	StoreRequest StoreKind = iota
	// StoreSession holds the caller's session data.
	StoreSession
	// StoreLocal is the shared memory store scoped to the caller's namespace.
	StoreLocal
	// StoreGlobal is the shared memory store scoped to the application namespace.
	StoreGlobal
	// StoreVolatile lives only for the current request.
	StoreVolatile
)

// StoreKinds lists every kind in binding order.
var StoreKinds = []StoreKind{StoreRequest, StoreSession, StoreLocal, StoreGlobal, StoreVolatile}

func (k StoreKind) String() string {
	switch k {
	case StoreRequest:
		return "request"
	case StoreSession:
		return "session"
	case StoreLocal:
		return "local"
	case StoreGlobal:
		return "global"
	case StoreVolatile:
		return "volatile"
	}
	return fmt.Sprintf("store(%d)", int(k))
}

// ParseStoreKind maps a store name to its StoreKind.
func ParseStoreKind(name string) (StoreKind, error) {
	for _, k := range StoreKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown store %q", name)
}
