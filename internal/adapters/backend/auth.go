package backend

import (
	"context"
	"net/http"

	domainauth "github.com/mydrops/storefront-edge/internal/domain/auth"
	apperrors "github.com/mydrops/storefront-edge/internal/errors"
)

// Fallback messages used when the backend error body carries none.
const (
	MsgInvalidCredentials      = "Invalid credentials"
	MsgInvalidAdminCredentials = "Invalid admin credentials"
	MsgRegistrationFailed      = "Registration failed"
	MsgInvalidToken            = "Invalid token"
)

// Login exchanges user credentials for a user grant.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error) {
	return c.login(ctx, "login", PathLogin, creds, MsgInvalidCredentials, false)
}

// AdminLogin exchanges credentials for an admin grant. The backend decides
// whether the account may hold an admin session.
func (c *Client) AdminLogin(ctx context.Context, creds domainauth.Credentials) (domainauth.Grant, error) {
	return c.login(ctx, "admin_login", PathAdminLogin, creds, MsgInvalidAdminCredentials, true)
}

func (c *Client) login(
	ctx context.Context,
	op, path string,
	creds domainauth.Credentials,
	fallback string,
	requireUser bool,
) (domainauth.Grant, error) {
	doc, err := c.postJSON(ctx, op, path, "", creds, fallback)
	if err != nil {
		return domainauth.Grant{}, err
	}
	grant, err := NormalizeGrant(doc, requireUser)
	if err != nil {
		return domainauth.Grant{}, apperrors.MalformedResponse(err)
	}
	return grant, nil
}

// Register creates an account. The response body is not inspected beyond its status.
func (c *Client) Register(ctx context.Context, reg domainauth.Registration) error {
	body, header, err := jsonRequest(reg)
	if err != nil {
		return err
	}
	res, err := c.do(ctx, call{op: "register", method: http.MethodPost, path: PathRegister, body: body, header: header})
	if err != nil {
		return err
	}
	if res.status < 200 || res.status > 299 {
		return apperrors.Upstream(res.status, ErrorMessage(res.body, MsgRegistrationFailed))
	}
	return nil
}

// VerifyToken asks the backend whether token is a live session of kind.
// A 4xx answer is reported as an invalid token; any other non-2xx answer is an
// upstream error so callers can keep the session through a backend outage.
func (c *Client) VerifyToken(
	ctx context.Context,
	kind domainauth.SessionKind,
	token string,
) (domainauth.Verification, error) {
	if token == "" {
		return domainauth.Verification{}, apperrors.Unauthenticated("no session token")
	}

	path, op := c.userVerifyPath, "verify_user"
	if kind == domainauth.SessionAdmin {
		path, op = PathAdminVerify, "verify_admin"
	}

	res, err := c.do(ctx, call{op: op, method: http.MethodPost, path: path, token: token})
	if err != nil {
		return domainauth.Verification{}, err
	}
	if res.status >= 400 && res.status < 500 {
		e := apperrors.InvalidToken(ErrorMessage(res.body, MsgInvalidToken))
		e.Status = res.status
		return domainauth.Verification{}, e
	}
	if res.status < 200 || res.status > 299 {
		return domainauth.Verification{}, apperrors.Upstream(res.status, ErrorMessage(res.body, MsgInvalidToken))
	}

	doc, err := decodeDocument(res.body)
	if err != nil {
		return domainauth.Verification{}, apperrors.MalformedResponse(err)
	}
	v, err := NormalizeVerification(doc)
	if err != nil {
		return domainauth.Verification{}, apperrors.MalformedResponse(err)
	}
	if !v.Valid {
		return domainauth.Verification{}, apperrors.InvalidToken(MsgInvalidToken)
	}
	return v, nil
}
