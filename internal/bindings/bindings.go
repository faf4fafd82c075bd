//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the native ScreenCaptureKit bridge library and
// exposes it as a bridge.Runtime using purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/internal/platform"
)

// ErrLibraryNotFound is returned when the bridge library cannot be found.
var ErrLibraryNotFound = errors.New("sckit: bridge library not found")

// ErrABIMismatch is returned when the loaded library speaks a different ABI.
var ErrABIMismatch = errors.New("sckit: bridge library ABI mismatch")

// LibraryDirEnv names an extra directory searched before the system paths.
const LibraryDirEnv = "SCKIT_LIBRARY_DIR"

var (
	libBridge uintptr
	libPath   string

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

// IsLoaded reports whether the bridge library has been loaded.
func IsLoaded() bool {
	return loaded
}

// LibraryPath returns the path the bridge library was loaded from.
func LibraryPath() string {
	return libPath
}

// Load opens the bridge library and registers every binding. dirs are
// searched before LibrarySearchPaths. Only the first call does any work;
// later calls return its result.
func Load(dirs ...string) error {
	loadOnce.Do(func() {
		loadErr = doLoad(dirs)
		if loadErr == nil {
			loaded = true
			return
		}
		Logger().Debug("bridge library unavailable", zap.Error(loadErr))
	})
	return loadErr
}

func doLoad(dirs []string) error {
	lib, path, err := loadLibrary(platform.BridgeLibraryNames(), searchDirs(dirs))
	if err != nil {
		return err
	}

	var abiVersion func() int32
	purego.RegisterLibFunc(&abiVersion, lib, "sc_bridge_abi_version")
	if v := abiVersion(); v != platform.BridgeABI {
		return fmt.Errorf("%w: %s reports %d, want %d", ErrABIMismatch, path, v, platform.BridgeABI)
	}

	libBridge, libPath = lib, path
	registerBindings(lib)
	installCallbacks()
	Logger().Info("bridge library loaded", zap.String("path", path), zap.Int32("abi", platform.BridgeABI))
	return nil
}

// loadLibrary tries every name in every directory, then the bare names so
// the dynamic loader can search its own paths.
func loadLibrary(names, dirs []string) (uintptr, string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range names {
			full := filepath.Join(dir, name)
			if lib, err := tryOpen(full); err == nil {
				return lib, full, nil
			}
		}
	}
	for _, name := range names {
		if lib, err := tryOpen(name); err == nil {
			return lib, name, nil
		}
	}
	return 0, "", fmt.Errorf("%w: %s", ErrLibraryNotFound, platform.BridgeLibrary)
}

// tryOpen opens a library with RTLD_NOW | RTLD_GLOBAL so unresolved symbols
// fail here and not at the first call.
func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// FindLibrary returns the path of the first bridge library found on disk.
// It is used for diagnostics and does not load anything.
func FindLibrary(dirs ...string) (string, error) {
	for _, dir := range searchDirs(dirs) {
		if dir == "" {
			continue
		}
		for _, name := range platform.BridgeLibraryNames() {
			full := filepath.Join(dir, name)
			if _, err := os.Stat(full); err == nil {
				return full, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, platform.BridgeLibrary)
}

func searchDirs(extra []string) []string {
	return append(append([]string(nil), extra...), LibrarySearchPaths()...)
}

// LibrarySearchPaths returns the directories searched for the bridge
// library: $SCKIT_LIBRARY_DIR, the loader path variable, the executable's
// directory, then platform defaults.
func LibrarySearchPaths() []string {
	var paths []string
	if dir := os.Getenv(LibraryDirEnv); dir != "" {
		paths = append(paths, filepath.SplitList(dir)...)
	}

	switch runtime.GOOS {
	case "darwin":
		if p := os.Getenv("DYLD_LIBRARY_PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
	default:
		if p := os.Getenv("LD_LIBRARY_PATH"); p != "" {
			paths = append(paths, filepath.SplitList(p)...)
		}
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, dir, filepath.Join(dir, "..", "Frameworks"))
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"/opt/homebrew/lib", // Apple Silicon
			"/usr/local/lib",    // Intel
		)
	default:
		paths = append(paths, "/usr/local/lib", "/usr/lib")
	}
	return paths
}
