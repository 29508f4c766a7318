package config

import (
	"runtime"
	"strings"
)

// OS is an operating system tag used to select task variants.
type OS string

const (
	Linux   OS = "linux"
	Windows OS = "windows"
	Mac     OS = "mac"
)

// OSes lists the supported tags.
var OSes = []OS{Linux, Windows, Mac}

// HostOS returns the tag of the running operating system. Operating systems
// other than Windows and macOS are treated as Linux.
func HostOS() OS {
	return osFromGOOS(runtime.GOOS)
}

func osFromGOOS(goos string) OS {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return Mac
	}
	return Linux
}

// ParseOS parses an OS key. "macos" is accepted as an alias of "mac".
func ParseOS(s string) (OS, bool) {
	switch s {
	case "linux":
		return Linux, true
	case "windows":
		return Windows, true
	case "mac", "macos":
		return Mac, true
	}
	return "", false
}

// splitVariant splits "task.os" into the task name and OS.
func splitVariant(name string) (string, OS, bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", "", false
	}
	os, ok := ParseOS(name[i+1:])
	if !ok {
		return "", "", false
	}
	return name[:i], os, true
}
