package video

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Download fetches a remote video with yt-dlp, capped at the given maximum
// resolution (e.g. "360p"), and merges it into an mp4 next to outputPath.
// Returns the path of the merged file.
func Download(url, outputPath, maxResolution string) (string, error) {
	height := strings.TrimSuffix(maxResolution, "p")
	format := fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", height, height)

	cmd := exec.Command("yt-dlp", url,
		"-f", format,
		"-o", outputPath+".webm",
		"--merge-output-format", "mp4")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}

	// yt-dlp names the merged file after the template plus the merge format.
	merged := outputPath + ".webm.mp4"
	final := outputPath + ".mp4"
	if err := os.Rename(merged, final); err != nil {
		return "", fmt.Errorf("merged video file not found after download: %w", err)
	}

	return final, nil
}
