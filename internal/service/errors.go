package service

import "errors"

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrReauthRequired = errors.New("re-authentication required")

	ErrRegisterOnServer = errors.New("registration failed on server")
	ErrLoginOnServer    = errors.New("login failed on server")
)
