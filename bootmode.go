package esprunner

import "strings"

// BootClassification is the verdict on a window of boot-time output.
type BootClassification int

const (
	// BootUnknown means the output shows no recognized banner. Callers treat
	// this the same as BootFirmwareRunning: recovery is only worth triggering
	// on a confident download-mode positive, not on a device that is merely
	// slow to print its banner.
	BootUnknown BootClassification = iota
	BootDownloadMode
	BootFirmwareRunning
)

func (c BootClassification) String() string {
	switch c {
	case BootDownloadMode:
		return "download mode"
	case BootFirmwareRunning:
		return "firmware running"
	default:
		return "unknown"
	}
}

// Banners printed by the ESP32-S3 mask ROM while it waits for a flashing
// tool. Matched case-insensitively.
var downloadMarkers = []string{
	"esp-rom",
	"waiting for download",
	"download(usb",
}

// Banners printed by the application firmware. Matched case-sensitively;
// kept fairly loose because they vary across builds.
var firmwareMarkers = []string{
	"ESP32-S3 STM32G0 Programmer",
	"Mounting SPIFFS",
	"Filesystem status:",
	"MODE 2",
}

// ClassifyBoot inspects captured boot output. Firmware evidence wins: a
// download-mode banner alone yields BootDownloadMode, but any firmware banner
// in the same window means the application is up.
func ClassifyBoot(text string) BootClassification {
	if looksLikeFirmware(text) {
		return BootFirmwareRunning
	}
	if looksLikeROMDownload(text) {
		return BootDownloadMode
	}
	return BootUnknown
}

func looksLikeROMDownload(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range downloadMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func looksLikeFirmware(text string) bool {
	for _, m := range firmwareMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
