package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/internal/services"
)

// JSON prints v as indented JSON to stdout.
func JSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// FileTable prints a team's files, newest first as returned by the server.
func FileTable(files []api.File) {
	if len(files) == 0 {
		fmt.Println("No files found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tTYPE\tUPLOADED\tID")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Name, FormatSize(f.Size), shortMIME(f.Type), RelativeTime(f.UploadedAt), f.ID)
	}
	w.Flush()
}

// FileDetail prints a single file's details.
func FileDetail(f api.File) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", f.Name)
	fmt.Fprintf(w, "ID:\t%s\n", f.ID)
	fmt.Fprintf(w, "Team:\t%s\n", f.TeamID)
	fmt.Fprintf(w, "Type:\t%s\n", f.Type)
	fmt.Fprintf(w, "Size:\t%s\n", FormatSize(f.Size))
	fmt.Fprintf(w, "Uploaded By:\t%s\n", f.UploadedBy)
	fmt.Fprintf(w, "Uploaded:\t%s\n", f.UploadedAt.Format(time.RFC3339))
	w.Flush()
}

// UserInfo prints who is signed in and where commands will go.
func UserInfo(me api.Me, serverURL, team string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Email:\t%s\n", me.Identity.Email)
	fmt.Fprintf(w, "Signed in with:\t%s\n", me.Identity.Provider)
	if me.Account != nil {
		fmt.Fprintf(w, "Role:\t%s\n", me.Account.Role)
	} else {
		fmt.Fprintf(w, "Role:\tnot chosen yet, finish onboarding in the web app\n")
	}
	if team == "" {
		team = "(none, use \"teamshare team use <id>\")"
	}
	fmt.Fprintf(w, "Team:\t%s\n", team)
	fmt.Fprintf(w, "Server:\t%s\n", serverURL)
	w.Flush()
}

// VersionInfo prints the CLI version and what the server reports, flagging
// an API mismatch.
func VersionInfo(cliVersion string, server *api.VersionInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "teamshare:\t%s (api %s)\n", cliVersion, api.SupportedAPIVersion)
	switch {
	case server == nil:
		fmt.Fprintf(w, "server:\tunreachable\n")
	case !server.Compatible():
		fmt.Fprintf(w, "server:\t%s (api %s, expected %s; upgrade one side)\n", server.Version, server.APIVersion, api.SupportedAPIVersion)
	default:
		fmt.Fprintf(w, "server:\t%s (api %s, commit %s)\n", server.Version, server.APIVersion, server.Commit)
	}
	w.Flush()
}

// Progress renders a one-line upload progress bar.
func Progress(name string, percent int) string {
	const width = 30
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return fmt.Sprintf("\r%s [%s%s] %3d%%", name, strings.Repeat("=", filled), strings.Repeat(" ", width-filled), percent)
}

// ProgressEnd terminates the progress line. Only a completed upload gets the
// full bar; a failed one keeps the last reported percentage.
func ProgressEnd(name string, err error) string {
	if err != nil {
		return "\n"
	}
	return Progress(name, 100) + "\n"
}

// FormatSize uses the same B/KB/MB rule as the web panel.
func FormatSize(b int64) string {
	return services.FormatSize(b)
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func shortMIME(mime string) string {
	// "application/pdf" -> "pdf", "image/png" -> "png"
	parts := strings.Split(mime, "/")
	if len(parts) == 2 {
		s := parts[1]
		if idx := strings.LastIndex(s, "."); idx >= 0 {
			s = s[idx+1:]
		}
		return s
	}
	return mime
}
