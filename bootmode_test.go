package esprunner

import "testing"

func TestClassifyBoot(t *testing.T) {
	tests := []struct {
		name string
		text string
		want BootClassification
	}{
		{
			name: "rom banner",
			text: "ESP-ROM:esp32s3-20210327\nwaiting for download\n",
			want: BootDownloadMode,
		},
		{
			name: "rom banner case insensitive",
			text: "boot mode DOWNLOAD(USB/UART0)\n",
			want: BootDownloadMode,
		},
		{
			name: "firmware banner",
			text: "ESP32-S3 STM32G0 Programmer v1.4\nMounting SPIFFS...\n",
			want: BootFirmwareRunning,
		},
		{
			name: "firmware banner wins over rom banner",
			text: "ESP-ROM:esp32s3\nwaiting for download\nESP32-S3 STM32G0 Programmer\n",
			want: BootFirmwareRunning,
		},
		{
			name: "firmware markers are case sensitive",
			text: "mounting spiffs\n",
			want: BootUnknown,
		},
		{
			name: "mode 2 indicator",
			text: "entering MODE 2\n",
			want: BootFirmwareRunning,
		},
		{
			name: "empty",
			text: "",
			want: BootUnknown,
		},
		{
			name: "unrelated output",
			text: "hello world\n",
			want: BootUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBoot(tt.text); got != tt.want {
				t.Errorf("ClassifyBoot(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
