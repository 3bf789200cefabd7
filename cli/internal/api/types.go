package api

import "time"

// File mirrors the backend FileRecord.
type File struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamID"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
	DownloadURL string    `json:"downloadURL"`
	StorageRef  string    `json:"storageRef"`
}

type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// Account is the user's role record.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Me is returned by GET /auth/me. Account is nil until a role is chosen.
type Me struct {
	Identity Identity `json:"identity"`
	Account  *Account `json:"account"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
	Account  *Account `json:"account,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role,omitempty"`
}

// Outcome is returned by registration endpoints.
type Outcome struct {
	Route    string    `json:"route"`
	State    string    `json:"state"`
	Message  string    `json:"message,omitempty"`
	Identity *Identity `json:"identity,omitempty"`
}

// PanelStatus is returned by GET /teams/:teamId/files/status.
type PanelStatus struct {
	TeamID    string `json:"teamID"`
	Files     []File `json:"files"`
	Uploading bool   `json:"uploading"`
	Progress  int    `json:"progress"`
	LastError string `json:"lastError,omitempty"`
}

// DeleteResult is returned by DELETE /teams/:teamId/files/:id, including on
// partial failure.
type DeleteResult struct {
	ID            string `json:"id"`
	Outcome       string `json:"outcome"`
	BlobError     string `json:"blobError,omitempty"`
	MetadataError string `json:"metadataError,omitempty"`
}

// DownloadURLResponse is returned by GET .../download?redirect=false.
type DownloadURLResponse struct {
	URL string `json:"url"`
}

// VersionInfo is returned by GET /version.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	Commit     string `json:"commit"`
	GoVersion  string `json:"goVersion"`
}

// SupportedAPIVersion is the server API this client speaks.
const SupportedAPIVersion = "v1"

// Compatible reports whether the server speaks the client's API version.
func (v VersionInfo) Compatible() bool {
	return v.APIVersion == SupportedAPIVersion
}

// SSOProvider is one entry of GET /auth/sso/providers.
type SSOProvider struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
}

// SSORedirect is returned by GET /auth/sso/oauth/:provider.
type SSORedirect struct {
	URL string `json:"url"`
}
