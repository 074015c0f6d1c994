package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Credentials is the token material stored in login.json. The portal rotates
// Token on every login.
type Credentials struct {
	Kind       int    `json:"kind"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Token      string `json:"token"`
	DeviceUUID string `json:"deviceUUID"`
}

func LoadCredentials(path string) (Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("%w: %s not found", ErrNoCredentials, path)
		}
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func SaveCredentials(path string, c Credentials) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Login loads credentials from path, opens a session and writes the rotated
// credentials back. The device UUID is kept from the stored file since the
// portal ties the token to it.
func Login(ctx context.Context, client Client, path string) (*Session, error) {
	stored, err := LoadCredentials(path)
	if err != nil {
		return nil, err
	}
	sess, next, err := client.Login(ctx, stored)
	if err != nil {
		return nil, err
	}
	next.DeviceUUID = stored.DeviceUUID
	if err := SaveCredentials(path, next); err != nil {
		return nil, fmt.Errorf("persist rotated credentials: %w", err)
	}
	return sess, nil
}
