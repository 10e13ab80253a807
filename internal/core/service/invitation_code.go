package service

import (
	"crypto/rand"
)

const invitationCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const invitationCodeLength = 8

// generateInvitationCode returns a random 8-char upper-case alphanumeric
// code drawn from an alphabet that drops visually ambiguous characters
// (0/O, 1/I).
func generateInvitationCode() (string, error) {
	b := make([]byte, invitationCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, invitationCodeLength)
	for i, v := range b {
		out[i] = invitationCodeAlphabet[int(v)%len(invitationCodeAlphabet)]
	}
	return string(out), nil
}
