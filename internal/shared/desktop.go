package shared

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("%w: platform %s", ErrUnsupported, rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// NotifyArgs builds the argv for a desktop notification on the current platform.
//
// override, when set, is a command name invoked as `override <title> <body>`.
func NotifyArgs(override, title, body, icon string) ([]string, error) {
	if override != "" {
		return []string{override, title, body}, nil
	}

	rt := getRuntime()
	switch rt {
	case "linux":
		args := []string{"notify-send", "--app-name=tclive"}
		if icon != "" {
			args = append(args, "--icon="+icon)
		}
		return append(args, title, body), nil
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(body), appleQuote(title))
		return []string{"osascript", "-e", script}, nil
	case "windows":
		script := fmt.Sprintf(
			"[reflection.assembly]::loadwithpartialname('System.Windows.Forms') | Out-Null;"+
				"$n = New-Object System.Windows.Forms.NotifyIcon;"+
				"$n.Icon = [System.Drawing.SystemIcons]::Information;$n.Visible = $true;"+
				"$n.ShowBalloonTip(10000, %s, %s, 'Info')",
			psQuote(title), psQuote(body))
		return []string{"powershell", "-NoProfile", "-Command", script}, nil
	default:
		return nil, fmt.Errorf("%w: platform %s", ErrUnsupported, rt)
	}
}

func appleQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
