package types

import "time"

// CredentialType represents the remote access protocol of a credential
type CredentialType string

const (
	CredentialSSH   CredentialType = "ssh"
	CredentialWinRM CredentialType = "winrm"
)

// Credential represents remote access credentials for a logical server.
// Secret fields hold ciphertext at rest; plaintext exists only inside
// the retrieval call scope.
type Credential struct {
	ServerID        string         `json:"server_id"`
	Type            CredentialType `json:"type"`
	Host            string         `json:"host"`
	Port            int            `json:"port"`
	Username        string         `json:"username"`
	EncryptedSecret string         `json:"encrypted_secret,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CredentialInfo is the listing view of a credential, without secret material
type CredentialInfo struct {
	ServerID  string         `json:"server_id"`
	Type      CredentialType `json:"type"`
	Host      string         `json:"host"`
	Port      int            `json:"port"`
	Username  string         `json:"username"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Info returns the secret-free view of the credential
func (c *Credential) Info() CredentialInfo {
	return CredentialInfo{
		ServerID:  c.ServerID,
		Type:      c.Type,
		Host:      c.Host,
		Port:      c.Port,
		Username:  c.Username,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
