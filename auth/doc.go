// Package auth signs outbound webhook deliveries.
//
// A signature is an HS256 JWT carrying the SHA-256 of the request body, sent
// in the X-Noteflow-Signature header. Receivers holding the shared secret
// call VerifyPayload with the token and the body they received.
//
//	cfg := auth.SignerConfig{Secret: []byte(secret)}
//	sig, err := auth.SignPayload(cfg, event.ArticleID, body)
//	req.Header.Set("X-Noteflow-Signature", sig)
package auth
