package esprunner

import (
	"os"
	"os/exec"
	"strings"
)

// RunTool runs one external build/flash tool invocation, echoing the command
// line to the session log and inheriting the console for the tool's own
// output. A non-zero exit is fatal to the run; callers propagate the tool's
// exit code.
func RunTool(out SessionLog, name string, args ...string) error {
	out.Write("\n[cmd] " + name + " " + strings.Join(args, " ") + "\n")
	out.Flush()
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunBuild invokes the firmware build step.
func RunBuild(out SessionLog) error {
	return RunTool(out, "pio", "run")
}

// RunUpload invokes the firmware upload step. When the serial port was given
// explicitly it is also passed as the upload port; autodetection can be
// flaky on macOS due to USB-CDC re-enumeration.
func RunUpload(out SessionLog, port string) error {
	if port != "" {
		return RunTool(out, "pio", "run", "-t", "upload", "--upload-port", port)
	}
	return RunTool(out, "pio", "run", "-t", "upload")
}
