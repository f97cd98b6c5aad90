package hostinterface

/*
#include <stdlib.h>

typedef int (*extensionCallback)(char const *name, char const *function, char const *data);

static inline int runExtensionCallback(extensionCallback fnc, char const *name, char const *function, char const *data)
{
	return fnc(name, function, data);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	// ErrNoCallback is returned before the host registered its callback.
	ErrNoCallback = errors.New("extension callback not registered")
	// ErrCallbackFull is returned when the host's callback buffer is full.
	ErrCallbackFull = errors.New("extension callback buffer full")
)

var (
	callbackMu  sync.RWMutex
	callbackFnc C.extensionCallback
)

// called by the host once after loading, before any command
//
//export RVExtensionRegisterCallback
func RVExtensionRegisterCallback(fnc C.extensionCallback) {
	callbackMu.Lock()
	defer callbackMu.Unlock()
	callbackFnc = fnc
}

// WriteCallback pushes function and data to the host asynchronously.
func WriteCallback(function, data string) error {
	callbackMu.RLock()
	defer callbackMu.RUnlock()
	if callbackFnc == nil {
		return ErrNoCallback
	}

	name := C.CString(Config.name)
	defer C.free(unsafe.Pointer(name))
	fn := C.CString(function)
	defer C.free(unsafe.Pointer(fn))
	payload := C.CString(data)
	defer C.free(unsafe.Pointer(payload))

	if C.runExtensionCallback(callbackFnc, name, fn, payload) < 0 {
		return ErrCallbackFull
	}
	return nil
}
