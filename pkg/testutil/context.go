package testutil

import "net/http"

// WithAdminToken sets the admin header checked by the admin middleware.
func WithAdminToken(req *http.Request, token string) *http.Request {
	req.Header.Set("X-Admin-Token", token)
	return req
}
