package system

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/shell"
)

var OsReleaseFile = "/etc/os-release"

// GetHostOsInfo reports name, version and architecture of the build host.
// The external image builders only run on x86_64 Linux, so the driver logs
// this at startup.
func GetHostOsInfo() (map[string]string, error) {
	log := logger.Logger()
	hostOsInfo := map[string]string{
		"name":    "",
		"version": "",
		"arch":    "",
	}

	output, err := shell.ExecCmd("uname -m", false, shell.HostPath, nil)
	if err != nil {
		return hostOsInfo, fmt.Errorf("failed to get host architecture: %w", err)
	}
	hostOsInfo["arch"] = strings.TrimSpace(output)

	file, err := os.Open(OsReleaseFile)
	if err != nil {
		return hostOsInfo, fmt.Errorf("failed to read %s: %w", OsReleaseFile, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "NAME=") {
			hostOsInfo["name"] = unquoteValue(line)
		} else if strings.HasPrefix(line, "VERSION_ID=") {
			hostOsInfo["version"] = unquoteValue(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return hostOsInfo, fmt.Errorf("failed to parse %s: %w", OsReleaseFile, err)
	}

	log.Infof("Detected host OS: %s %s (%s)", hostOsInfo["name"], hostOsInfo["version"], hostOsInfo["arch"])
	return hostOsInfo, nil
}

func unquoteValue(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(parts[1]), "\"")
}

// RequireTools checks that every named host tool is on PATH and reports
// all missing ones at once.
func RequireTools(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required host tools: %s", strings.Join(missing, ", "))
	}
	return nil
}
