//go:build !ios && !android && (amd64 || arm64)

// Package platform reports what the host can do and how its shared libraries
// are named.
package platform

import (
	"fmt"
	"runtime"
	"unsafe"
)

// SupportsScreenCapture indicates the host OS ships the capture framework the
// native bridge wraps. Everywhere else only the simulated runtime works.
const SupportsScreenCapture = runtime.GOOS == "darwin"

// SupportsStructByValue indicates whether purego can pass and return structs
// by value. Bindings that need a struct use out-pointers when it is false.
const SupportsStructByValue = runtime.GOOS == "darwin" &&
	(runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64")

// Is64Bit indicates whether the platform is 64-bit. Handles are carried in a
// uintptr and the record layouts assume 8-byte alignment.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// BridgeLibrary is the base name of the native bridge library.
const BridgeLibrary = "ScreenCaptureKitBridge"

// BridgeABI is the bridge ABI version this module was written against.
const BridgeABI = 1

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	LibraryPrefix, LibraryExtension = naming(runtime.GOOS)
}

func naming(goos string) (prefix, ext string) {
	switch goos {
	case "darwin":
		return "lib", ".dylib"
	case "windows":
		return "", ".dll"
	default:
		return "lib", ".so"
	}
}

// FormatLibraryName returns the platform-specific file name for the library
// name at ABI version, or the unversioned name when version is 0.
//
//	darwin:  FormatLibraryName("ScreenCaptureKitBridge", 1) -> "libScreenCaptureKitBridge.1.dylib"
//	linux:   FormatLibraryName("ScreenCaptureKitBridge", 1) -> "libScreenCaptureKitBridge.so.1"
//	windows: FormatLibraryName("ScreenCaptureKitBridge", 1) -> "ScreenCaptureKitBridge-1.dll"
func FormatLibraryName(name string, version int) string {
	return formatFor(runtime.GOOS, name, version)
}

func formatFor(goos, name string, version int) string {
	prefix, ext := naming(goos)
	if version <= 0 {
		return prefix + name + ext
	}
	switch goos {
	case "darwin":
		return fmt.Sprintf("%s%s.%d%s", prefix, name, version, ext)
	case "windows":
		return fmt.Sprintf("%s%s-%d%s", prefix, name, version, ext)
	default:
		return fmt.Sprintf("%s%s%s.%d", prefix, name, ext, version)
	}
}

// BridgeLibraryNames returns the candidate file names for the bridge
// library, most specific first.
func BridgeLibraryNames() []string {
	return []string{
		FormatLibraryName(BridgeLibrary, BridgeABI),
		FormatLibraryName(BridgeLibrary, 0),
	}
}
