package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"time"

	"esprunner"

	log "github.com/sirupsen/logrus"
)

const appVersion = "0.2.0"

const usage = `Usage: esprunner [-i] [-r] ... [--port PORT]

Examples:
  esprunner -i
  esprunner -i -r
  esprunner --skip-build 2 p

Options:
  --port PORT         Serial port (e.g. /dev/tty.usbmodemXXXX)
  --baud N            Baud rate (default: 115200)
  --skip-build        Do not run 'pio run'
  --skip-upload       Do not run 'pio run -t upload'
  --log PATH          Write a full copy of output to PATH (default: esprunner_last.log)
  --profile PATH      YAML profile providing option defaults
  --open-timeout S    How long to wait for the serial port (default: 15)
  --boot-wait S       Wait after opening port before sending commands (default: 4)
  --quiet S           Consider command done after S seconds of no output (default: 0.6)
  --max S             Max seconds to wait per command (default: 6)
  --space             Send the production <space> command (ASCII 0x20)
  --set-serial N      Send S<N> to set the next serial number
  --verbose           Enable verbose logging
  --version           Print the program version
`

type cliOptions struct {
	esprunner.Options
	profile    string
	skipBuild  bool
	skipUpload bool
	verbose    bool
	version    bool
}

// parseOptions scans argv manually instead of using the flag package: the
// command grammar requires preserving left-to-right ordering of interleaved
// short tokens like -i and -r, which flag would reject as unknown flags.
func parseOptions(argv []string) (cliOptions, error) {
	opts := cliOptions{Options: esprunner.DefaultOptions()}

	// The profile is applied first so explicit flags override it.
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == "--profile" {
			opts.profile = argv[i+1]
		}
	}
	if opts.profile != "" {
		if err := esprunner.LoadProfile(opts.profile, &opts.Options); err != nil {
			return opts, err
		}
	}

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		var err error
		switch {
		case a == "--port" && i+1 < len(argv):
			opts.Port = argv[i+1]
			i++
		case a == "--baud" && i+1 < len(argv):
			opts.Baud, err = strconv.Atoi(argv[i+1])
			i++
		case a == "--log" && i+1 < len(argv):
			opts.LogPath = argv[i+1]
			i++
		case a == "--open-timeout" && i+1 < len(argv):
			opts.OpenTimeout, err = strconv.ParseFloat(argv[i+1], 64)
			i++
		case a == "--boot-wait" && i+1 < len(argv):
			opts.BootWait, err = strconv.ParseFloat(argv[i+1], 64)
			i++
		case a == "--quiet" && i+1 < len(argv):
			opts.Quiet, err = strconv.ParseFloat(argv[i+1], 64)
			i++
		case a == "--max" && i+1 < len(argv):
			opts.MaxPerCmd, err = strconv.ParseFloat(argv[i+1], 64)
			i++
		case a == "--profile":
			i++ // value already consumed above
		case a == "--skip-build":
			opts.skipBuild = true
		case a == "--skip-upload":
			opts.skipUpload = true
		case a == "--verbose":
			opts.verbose = true
		case a == "--version":
			opts.version = true
		case a == "-h" || a == "--help":
			fmt.Print(usage)
			os.Exit(0)
		}
		if err != nil {
			return opts, fmt.Errorf("invalid value for %s: %v", a, err)
		}
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := parseOptions(argv)
	if err != nil {
		log.Error(err)
		return 1
	}
	if opts.version {
		fmt.Println(appVersion)
		return 0
	}
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}
	esprunner.SetLogger(log.StandardLogger())

	cmds, err := esprunner.ParseCommands(argv)
	if err != nil {
		log.Error(err)
		return 1
	}

	out, err := esprunner.NewTeeLog(opts.LogPath)
	if err != nil {
		log.Errorf("failed to open session log: %v", err)
		return 1
	}
	defer out.Close()
	out.Write(fmt.Sprintf("[info] Logging to: %s\n", opts.LogPath))
	out.Flush()

	if !opts.skipBuild {
		if err := esprunner.RunBuild(out); err != nil {
			log.Errorf("build failed: %v", err)
			return exitCode(err)
		}
	}
	if !opts.skipUpload {
		if err := esprunner.RunUpload(out, opts.Port); err != nil {
			log.Errorf("upload failed: %v", err)
			return exitCode(err)
		}
	}

	if len(cmds) == 0 {
		out.Write("\nNo commands specified (e.g. -i -r). Nothing to do.\n")
		return 0
	}

	port, err := esprunner.ResolvePort(opts.Port)
	if err != nil {
		log.Error(err)
		return 1
	}
	if opts.Port == "" {
		out.Write(fmt.Sprintf("\n[info] Auto-selected port: %s\n", port))
		out.Flush()
	}

	conn, err := esprunner.OpenPortWithRetry(port, opts.Baud, secs(opts.OpenTimeout))
	if err != nil {
		log.Error(err)
		return 1
	}

	sess := esprunner.NewSession(conn, port, opts.Baud, secs(opts.Quiet), secs(opts.MaxPerCmd), out)
	defer sess.Close()

	ctx := listenInterrupt()

	// Give USB-CDC and the firmware some time to settle, then check whether
	// we are talking to the application or to the mask ROM.
	if sess.SettleAndClassify(secs(opts.BootWait)) == esprunner.BootDownloadMode {
		out.Write("[warn] Detected ROM download mode on serial open; attempting reset sequences...\n")
		out.Flush()
		sess.Recover()
	}

	if err := sess.Run(ctx, cmds); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func exitCode(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return 1
}

// listenInterrupt cancels the returned context on SIGINT. The session's
// deferred Close still runs, so the serial handle is released and the log
// flushed even on user abort.
func listenInterrupt() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}
