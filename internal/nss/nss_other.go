//go:build !linux || !cgo

package nss

import "errors"

func available() bool { return false }

func configure(db, sources string) error {
	return errors.New("nss: override not supported on this platform")
}
