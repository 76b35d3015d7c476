package static

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
)

type validatorConfig struct {
	// Token is the exact bearer token value expected by this validator.
	Token string `json:"token"`

	// Subject is returned as claims.Subject.
	Subject string `json:"subject,omitempty"`

	// Permissions is returned as claims.Scopes. Omit it to model a token
	// without a permission claim.
	Permissions []string `json:"permissions,omitempty"`

	// Raw is returned as claims.Raw.
	Raw map[string]any `json:"raw,omitempty"`
}

type validator struct {
	cfg validatorConfig
}

// NewValidatorFromJSON accepts either {"token":"...","permissions":[...]}
// or a bare JSON string holding the token.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil, errors.New("static auth: missing config")
	}

	var cfg validatorConfig
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &cfg.Token); err != nil {
			return nil, fmtError("static auth: invalid config", err)
		}
	} else {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmtError("static auth: invalid config", err)
		}
	}

	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		return nil, errors.New("static auth: token is required")
	}
	cfg.Subject = strings.TrimSpace(cfg.Subject)
	if cfg.Subject == "" {
		cfg.Subject = "static"
	}
	if cfg.Raw == nil {
		cfg.Raw = map[string]any{}
	}

	return &validator{cfg: cfg}, nil
}

func (v *validator) Validate(_ context.Context, token string) (*auth.Claims, error) {
	if strings.TrimSpace(token) != v.cfg.Token {
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusUnauthorized, "Unable to verify authentication token.", nil)
	}
	var scopes []string
	if v.cfg.Permissions != nil {
		scopes = append([]string{}, v.cfg.Permissions...)
	}
	return &auth.Claims{
		Subject: v.cfg.Subject,
		Scopes:  scopes,
		Raw:     v.cfg.Raw,
	}, nil
}

func init() {
	auth.RegisterProvider("static", NewValidatorFromJSON)
}

func fmtError(msg string, err error) error {
	if err == nil {
		return errors.New(msg)
	}
	return errors.New(msg + ": " + err.Error())
}
