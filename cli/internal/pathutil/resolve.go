package pathutil

import (
	"fmt"
	"strings"

	"github.com/teamshare/backend/cli/internal/api"
)

// Resolve finds a file of the team by ID or by name. Names match
// case-insensitively; a name shared by several files is rejected so the caller
// falls back to the ID.
func Resolve(client *api.Client, teamID, ref string) (api.File, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return api.File{}, fmt.Errorf("file name or ID is required")
	}

	files, err := List(client, teamID)
	if err != nil {
		return api.File{}, err
	}

	if isUUID(ref) {
		for _, f := range files {
			if strings.EqualFold(f.ID, ref) {
				return f, nil
			}
		}
		return api.File{}, fmt.Errorf("not found in team %s: %s", teamID, ref)
	}

	var matches []api.File
	for _, f := range files {
		if strings.EqualFold(f.Name, ref) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return api.File{}, fmt.Errorf("not found in team %s: %s", teamID, ref)
	case 1:
		return matches[0], nil
	default:
		return api.File{}, fmt.Errorf("%d files named %q, use the file ID instead", len(matches), ref)
	}
}

// List returns the team's files, newest first.
func List(client *api.Client, teamID string) ([]api.File, error) {
	var resp api.Response[[]api.File]
	if err := client.Get(api.TeamFilesPath(teamID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("api error: %s", resp.Error)
	}
	return resp.Data, nil
}

func isUUID(s string) bool {
	// Quick check: 36 chars, with hyphens at positions 8, 13, 18, 23.
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
		} else {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
				return false
			}
		}
	}
	return true
}
