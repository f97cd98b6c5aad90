package hostinterface

/*
#include <stdlib.h>
#include <string.h>
*/
import "C"
import (
	"unsafe"
)

// Config defines how calls to this extension will be handled
var Config configStruct = configStruct{}

func init() {
	Config.Init()
}

// called by the host to get the version of the extension
//
//export RVExtensionVersion
func RVExtensionVersion(output *C.char, outputsize C.size_t) {
	reply(Config.version, output, outputsize)
}

// called by the host as: "extensionName" callExtension "command"
//
//export RVExtension
func RVExtension(output *C.char, outputsize C.size_t, input *C.char) {
	reply(Call(C.GoString(input), nil), output, outputsize)
}

// called by the host as: "extensionName" callExtension ["command", [args]]
//
//export RVExtensionArgs
func RVExtensionArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	reply(Call(C.GoString(input), parseArgs(argv, argc)), output, outputsize)
}

// parseArgs converts the C argv array to a Go string slice
func parseArgs(argv **C.char, argc C.int) []string {
	if argc == 0 {
		return []string{}
	}
	raw := unsafe.Slice(argv, int(argc))
	args := make([]string, len(raw))
	for i, a := range raw {
		args[i] = C.GoString(a)
	}
	return args
}

// reply copies response into the host's output buffer, truncating and
// always terminating it.
func reply(response string, output *C.char, outputsize C.size_t) {
	if outputsize == 0 {
		return
	}
	result := C.CString(response)
	defer C.free(unsafe.Pointer(result))
	size := C.strlen(result)
	if size >= outputsize {
		size = outputsize - 1
	}
	C.memmove(unsafe.Pointer(output), unsafe.Pointer(result), size)
	*(*C.char)(unsafe.Add(unsafe.Pointer(output), uintptr(size))) = 0
}
