// Package nss restricts glibc name-service lookups to the built-in files and
// dns sources.
//
// Modules configured in /etc/nsswitch.conf (sssd, systemd, ldap and so on)
// may open cache files or daemon sockets on first use. Those descriptors
// would otherwise show up as leaks in whichever example first resolved a user
// or host name.
package nss

import (
	"fmt"
	"sync"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
)

// Database is one name-service database and the sources it is pinned to.
type Database struct {
	Name    string
	Sources string
}

// Databases lists every database Normalize overrides, in call order.
var Databases = []Database{
	{"passwd", "files"},
	{"shadow", "files"},
	{"group", "files"},
	{"hosts", "files dns"},
	{"services", "files"},
	{"netgroup", "files"},
	{"automount", "files"},
	{"aliases", "files"},
	{"ethers", "files"},
	{"gshadow", "files"},
	{"initgroups", "files"},
	{"networks", "files dns"},
	{"protocols", "files"},
	{"publickey", "files"},
	{"rpc", "files"},
}

var (
	normalizeOnce sync.Once
	normalizeErr  error
)

// Normalize overrides every database in Databases. It runs at most once per
// process; later calls return the first result. When the C library has no
// override entry point the error has category name_service and nothing is
// changed.
func Normalize() error {
	normalizeOnce.Do(func() {
		normalizeErr = normalize()
	})
	return normalizeErr
}

// Available reports whether the override entry point can be resolved.
func Available() bool {
	return available()
}

func normalize() error {
	if !available() {
		return core.ErrNameService("__nss_configure_lookup is not available")
	}
	var failed []string
	for _, db := range Databases {
		if err := configure(db.Name, db.Sources); err != nil {
			failed = append(failed, db.Name)
		}
	}
	if len(failed) > 0 {
		return core.ErrNameService(fmt.Sprintf("override rejected for %v", failed))
	}
	return nil
}
