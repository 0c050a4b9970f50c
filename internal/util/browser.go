package util

import (
	"os/exec"
	"runtime"
)

// browserCommands lists launch commands per OS, most preferred first.
func browserCommands(url string) [][]string {
	switch runtime.GOOS {
	case "windows":
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"sensible-browser", url},
			{"google-chrome", url},
			{"firefox", url},
		}
	}
}

// OpenBrowser opens the admin UI in a local browser, trying each known
// launcher until one starts.
func OpenBrowser(url string) error {
	var err error
	for _, argv := range browserCommands(url) {
		if err = exec.Command(argv[0], argv[1:]...).Start(); err == nil {
			return nil
		}
	}
	return err
}
