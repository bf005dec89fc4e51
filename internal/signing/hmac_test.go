package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testSecret = "testsecret"
	testBody   = `{"destination":"U1","events":[]}`
	// base64(HMAC-SHA256("testsecret", testBody))
	testSignature = "fk04R+/mpftGJmD9sP4idCYMIzrMD3nZfOnKIbAqqbw="
)

func TestSignKnownVector(t *testing.T) {
	assert.Equal(t, testSignature, Sign(testSecret, []byte(testBody)))
}

func TestVerify(t *testing.T) {
	body := []byte(testBody)

	assert.True(t, Verify(testSecret, body, testSignature))
	assert.True(t, Verify(testSecret, body, Sign(testSecret, body)))

	assert.False(t, Verify(testSecret, []byte(`{"destination":"U2","events":[]}`), testSignature), "tampered body")
	assert.False(t, Verify("othersecret", body, testSignature), "wrong secret")
	assert.False(t, Verify(testSecret, append(body, ' '), testSignature), "trailing byte")
	assert.False(t, Verify(testSecret, body, ""), "empty signature")
	assert.False(t, Verify("", body, testSignature), "empty secret")
	assert.False(t, Verify(testSecret, body, "not base64!"), "malformed signature")
	assert.False(t, Verify(testSecret, body, testSignature[:20]), "truncated signature")
}
