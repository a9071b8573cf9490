package museum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// verifyPasswordRequest carries the derived password hash, never the
// password itself.
type verifyPasswordRequest struct {
	PassHash string `json:"passHash"`
}

type verifyPasswordResponse struct {
	JWTToken string `json:"jwtToken"`
}

// VerifyPassword exchanges a derived password hash for an authorization
// token scoped to the link's access token. HTTP 401 (ErrUnauthorized)
// means the password was wrong; the caller maps that to a field-level
// validation failure rather than a fatal error.
func (c *Client) VerifyPassword(ctx context.Context, creds Credentials, passHash string) (string, error) {
	body, err := json.Marshal(verifyPasswordRequest{PassHash: passHash})
	if err != nil {
		return "", fmt.Errorf("museum: encoding verify request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/public-collection/verify-password", creds, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var vr verifyPasswordResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("museum: decoding verify response: %w", err)
	}

	if vr.JWTToken == "" {
		return "", fmt.Errorf("museum: verify response carried no token")
	}

	return vr.JWTToken, nil
}
