package domain

import "fmt"

// Option identifies one behaviour flag that groups and routes may override.
type Option int

const (
	OptionConnectDatabase Option = iota
	OptionSessionRequired
	OptionEnableTemplateEngine
	OptionRoutingCache
)

var optionNames = map[Option]string{
	OptionConnectDatabase:      "connect_database",
	OptionSessionRequired:      "session_required",
	OptionEnableTemplateEngine: "enable_template_engine",
	OptionRoutingCache:         "routing_cache",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("option(%d)", int(o))
}

// ParseOption maps an option name (as used in YAML definitions) to its Option.
func ParseOption(name string) (Option, error) {
	for opt, n := range optionNames {
		if n == name {
			return opt, nil
		}
	}
	return 0, fmt.Errorf("unknown option %q", name)
}

// Overrides is a sparse set of option values. Absent keys inherit from the enclosing scope.
type Overrides map[Option]bool

// Clone returns an independent copy.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Options holds the resolved behaviour flags for one request.
type Options struct {
	ConnectDatabase      bool
	SessionRequired      bool
	EnableTemplateEngine bool
	RoutingCache         bool

	// LoginRoute is where unauthenticated callers are sent when a session is required.
	LoginRoute string
}

// DefaultOptions returns the global defaults.
func DefaultOptions() Options {
	return Options{
		ConnectDatabase:      true,
		SessionRequired:      true,
		EnableTemplateEngine: false,
		RoutingCache:         true,
	}
}

// Apply returns a copy of o with every key present in ov applied.
func (o Options) Apply(ov Overrides) Options {
	for opt, v := range ov {
		switch opt {
		case OptionConnectDatabase:
			o.ConnectDatabase = v
		case OptionSessionRequired:
			o.SessionRequired = v
		case OptionEnableTemplateEngine:
			o.EnableTemplateEngine = v
		case OptionRoutingCache:
			o.RoutingCache = v
		}
	}
	return o
}

// Get reads a flag by Option.
func (o Options) Get(opt Option) bool {
	switch opt {
	case OptionConnectDatabase:
		return o.ConnectDatabase
	case OptionSessionRequired:
		return o.SessionRequired
	case OptionEnableTemplateEngine:
		return o.EnableTemplateEngine
	case OptionRoutingCache:
		return o.RoutingCache
	}
	return false
}
