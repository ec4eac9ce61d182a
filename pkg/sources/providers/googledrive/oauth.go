package googledrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/modularwp/media-import/pkg/sources/types"
)

const oauthServiceName = "Google"

// TokenPayload is the token response returned to the browser.
type TokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

func newTokenPayload(tok *oauth2.Token) *TokenPayload {
	out := &TokenPayload{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}

type exchanger struct {
	endpoint    oauth2.Endpoint
	redirectURL string
	httpClient  *http.Client
}

func (e *exchanger) exchange(ctx context.Context, clientID, clientSecret, code string) (*oauth2.Token, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     e.endpoint,
		RedirectURL:  e.redirectURL,
		Scopes:       []string{drive.DriveReadonlyScope},
	}

	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, retrieveErrorToUpstream(re)
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	return tok, nil
}

func retrieveErrorToUpstream(re *oauth2.RetrieveError) types.UpstreamError {
	out := types.UpstreamError{
		Service: oauthServiceName,
		Code:    re.ErrorCode,
		Message: re.ErrorDescription,
	}
	if re.Response != nil {
		out.StatusCode = re.Response.StatusCode
	}
	if out.Message == "" {
		out.Message = re.ErrorCode
	}
	return out
}

func defaultEndpoint() oauth2.Endpoint {
	return google.Endpoint
}
