package app

import (
	"github.com/clinicworks/visitlink/internal/appcontext"
)

// Interface is an alias to the shared appcontext.Interface.
// Command packages should import internal/appcontext directly; this alias
// exists so the compile-time assertion below lives next to the App type.
type Interface = appcontext.Interface

// Compile-time check that App implements the command interface.
var _ Interface = (*App)(nil)
