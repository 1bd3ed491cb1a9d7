/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package auth implements collab.TokenVerifier against a configurable bearer
// token issuer. Verification failures are reported through the ok return
// value rather than an error — callers downgrade to an unauthenticated
// member instead of failing the join outright.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Config points the verifier at the bearer-token issuer; Verify calls the
// issuer's /userinfo endpoint under IssuerURL.
type Config struct {
	IssuerURL string
	Timeout   float64 // seconds; 0 means no client timeout
}

// BearerVerifier calls the configured issuer to exchange a bearer token for
// a stable user id and avatar URL. When IssuerURL is empty it falls back to
// treating any non-empty token as an anonymous identity derived
// deterministically from the token — useful for local development and
// tests without a real identity provider.
type BearerVerifier struct {
	cfg    Config
	client *resty.Client
}

// NewBearerVerifier builds a BearerVerifier.
func NewBearerVerifier(cfg Config) *BearerVerifier {
	return &BearerVerifier{
		cfg:    cfg,
		client: resty.New().SetTimeout(time.Duration(cfg.Timeout * float64(time.Second))),
	}
}

// Verify exchanges token for a stable user id and photo URL. ok is false
// whenever the token cannot be authenticated, including a missing or
// malformed Authorization header (the caller supplies the bare token, with
// any "Bearer " prefix already stripped).
func (v *BearerVerifier) Verify(ctx context.Context, token string) (userID, photoURL string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", false
	}

	if v.cfg.IssuerURL == "" {
		return anonymousID(token), "", true
	}

	var payload struct {
		Sub     string `json:"sub"`
		Picture string `json:"picture"`
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&payload).
		Get(v.cfg.IssuerURL + "/userinfo")
	if err != nil || resp.IsError() {
		return "", "", false
	}
	if payload.Sub == "" {
		return "", "", false
	}

	return payload.Sub, payload.Picture, true
}

// anonymousID derives a deterministic user id from a bearer token so that a
// client reconnecting with the same locally-stored token is recognized as
// the same player even without a real identity provider configured.
func anonymousID(token string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("soundoff-anon:%s", token))).String()
}
