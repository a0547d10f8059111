package deps

import (
	"os"
	"os/exec"
	"runtime"
)

// ffmpegFallbacks lists install locations checked when ffmpeg is not on PATH.
var ffmpegFallbacks = []string{
	"/usr/local/bin/ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
}

// ResolveFFmpeg reports the ffmpeg binary WhisperX will decode audio with.
func ResolveFFmpeg() Status {
	result := Status{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Used by WhisperX to decode audio",
	}

	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	for _, candidate := range ffmpegFallbacks {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			result.Command = candidate
			result.Available = true
			result.Detail = "not in PATH"
			return result
		}
	}

	result.Detail = `binary "ffmpeg" not found`
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
