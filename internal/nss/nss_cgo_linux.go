//go:build linux && cgo

package nss

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef int (*nss_configure_lookup_fn)(const char *, const char *);

static void *leakspec_nss_symbol(void) {
	void *self = dlopen(NULL, RTLD_LAZY);
	if (self == NULL) {
		return NULL;
	}
	return dlsym(self, "__nss_configure_lookup");
}

static int leakspec_nss_call(void *fn, const char *db, const char *service) {
	return ((nss_configure_lookup_fn)fn)(db, service);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

var (
	symbolOnce sync.Once
	symbol     unsafe.Pointer
)

func lookupSymbol() unsafe.Pointer {
	symbolOnce.Do(func() {
		symbol = C.leakspec_nss_symbol()
	})
	return symbol
}

func available() bool {
	return lookupSymbol() != nil
}

func configure(db, sources string) error {
	fn := lookupSymbol()
	if fn == nil {
		return fmt.Errorf("nss: no override entry point")
	}
	cdb := C.CString(db)
	defer C.free(unsafe.Pointer(cdb))
	csrc := C.CString(sources)
	defer C.free(unsafe.Pointer(csrc))

	if rc := C.leakspec_nss_call(fn, cdb, csrc); rc != 0 {
		return fmt.Errorf("nss: configuring %s returned %d", db, int(rc))
	}
	return nil
}
