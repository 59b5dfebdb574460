package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credential is the CDP API key identity used to mint request tokens. It is
// loaded once at startup and never persisted anywhere else.
type Credential struct {
	Name       string `json:"name"`
	PrivateKey string `json:"privateKey"`
}

// CredentialError signals unreadable or malformed credential material. It is
// fatal and surfaces before any network call is made.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("credential error: %s", e.Reason)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// LoadCredential reads the CDP API key file (a JSON object with "name" and a
// PEM-encoded EC "privateKey").
func LoadCredential(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialError{Reason: fmt.Sprintf("failed to read credential file %s", path), Err: err}
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, &CredentialError{Reason: fmt.Sprintf("failed to parse credential file %s", path), Err: err}
	}
	if cred.Name == "" || cred.PrivateKey == "" {
		return nil, &CredentialError{Reason: fmt.Sprintf("credential file %s is missing name or privateKey", path)}
	}
	return &cred, nil
}
