package hostinterface

import (
	"path/filepath"
	"unsafe"
)

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>
#include <libloaderapi.h>
#include <stdlib.h>

char* ModuleFileName() {
    HMODULE module = NULL;
    if (!GetModuleHandleExA(GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
                           GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
                           (LPCTSTR)ModuleFileName,
                           &module)) {
        return NULL;
    }

    DWORD size = MAX_PATH;
    char* buf = NULL;
    for (;;) {
        char* grown = (char*)realloc(buf, size);
        if (!grown) {
            free(buf);
            return NULL;
        }
        buf = grown;
        DWORD n = GetModuleFileNameA(module, buf, size);
        if (n == 0) {
            free(buf);
            return NULL;
        }
        if (n < size) {
            return buf;
        }
        size *= 2;
    }
}

#elif __linux__

#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

char* ModuleFileName() {
    Dl_info info;
    if (dladdr((void*)ModuleFileName, &info) == 0 || info.dli_fname == NULL) {
        return NULL;
    }
    return strdup(info.dli_fname);
}

#endif
*/
import "C"

// ModulePath returns the absolute path of the shared library the host loaded.
// It is empty when the loader cannot tell.
func ModulePath() string {
	p := C.ModuleFileName()
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

// ModuleDir returns the directory holding the shared library, falling back
// to the working directory.
func ModuleDir() string {
	p := ModulePath()
	if p == "" {
		return "."
	}
	return filepath.Dir(p)
}
