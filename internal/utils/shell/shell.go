package shell

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

// HostPath means "run on the host", i.e. no chroot wrapping.
const HostPath = ""

// GetFullCmdStr resolves the command's binary to its full path and wraps it
// with sudo/chroot as requested. The rest of the command line is kept as-is
// so quoting survives intact.
func GetFullCmdStr(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	trimmed := strings.TrimSpace(cmdStr)
	if trimmed == "" {
		return "", fmt.Errorf("empty command")
	}
	fields := strings.SplitN(trimmed, " ", 2)
	binary := fields[0]
	fullBinary := binary
	if chrootPath == HostPath {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return "", fmt.Errorf("command %q not found in PATH: %w", binary, err)
		}
		fullBinary = resolved
	}
	full := fullBinary
	if len(fields) == 2 {
		full = fullBinary + " " + fields[1]
	}
	for _, env := range envVal {
		full = env + " " + full
	}
	if chrootPath != HostPath {
		full = fmt.Sprintf("chroot %s sh -c %q", chrootPath, full)
	}
	if sudo {
		full = "sudo " + full
	}
	return full, nil
}

// ExecCmd runs a command and returns its combined output. Declared as a
// variable so tests can swap in an override.
var ExecCmd = func(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	full, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", err
	}
	log := logger.Logger()
	log.Debugf("exec: %s", full)
	out, err := exec.Command("sh", "-c", full).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command %q failed: %w: %s", cmdStr, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// ExecCmdSilent is ExecCmd without debug logging, for noisy poll loops.
var ExecCmdSilent = func(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	full, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", err
	}
	out, err := exec.Command("sh", "-c", full).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command %q failed: %w: %s", cmdStr, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// ExecCmdWithStream runs a command and forwards each stdout line to the
// logger as it arrives. Long-running external builders (ImageBuilder,
// ophub, ULO) are invoked through this so their progress stays visible.
var ExecCmdWithStream = func(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	full, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", err
	}
	log := logger.Logger()
	log.Debugf("exec (stream): %s", full)
	cmd := exec.Command("sh", "-c", full)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("attaching stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting command %q: %w", cmdStr, err)
	}
	var sb strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		sb.WriteString(line)
		sb.WriteByte('\n')
		log.Infof("  | %s", line)
	}
	if err := cmd.Wait(); err != nil {
		return sb.String(), fmt.Errorf("command %q failed: %w", cmdStr, err)
	}
	return sb.String(), nil
}

// ExecCmdWithInput runs a command with the given string piped to stdin.
var ExecCmdWithInput = func(inputStr string, cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	full, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", err
	}
	cmd := exec.Command("sh", "-c", full)
	cmd.Stdin = strings.NewReader(inputStr)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command %q failed: %w: %s", cmdStr, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
