package fpsstore

import (
	"os"
	"sync"
)

const defaultCompiledShmRoot = "/opt/milk/shm"

var (
	shmRootOnce  sync.Once
	shmRootCache string
)

// ShmRoot resolves the shared-memory root directory once per process
// lifetime: MILK_SHM_DIR if set and the directory exists, else the
// compile-time default, else /tmp (spec §4.2).
func ShmRoot() string {
	shmRootOnce.Do(func() {
		shmRootCache = resolveShmRoot()
	})
	return shmRootCache
}

// ResetShmRootCacheForTest clears the cached resolution; tests only.
func ResetShmRootCacheForTest() {
	shmRootOnce = sync.Once{}
	shmRootCache = ""
}

func resolveShmRoot() string {
	if dir := os.Getenv("MILK_SHM_DIR"); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if info, err := os.Stat(defaultCompiledShmRoot); err == nil && info.IsDir() {
		return defaultCompiledShmRoot
	}
	return "/tmp"
}
