package security

import (
	"strings"

	"github.com/pquerna/otp/totp"
)

// totpIssuer is shown in authenticator apps next to the account name.
const totpIssuer = "Scan2Win"

// GenerateTOTPSecret creates a new TOTP secret for an admin and returns
// the secret plus the otpauth:// provisioning URL.
func GenerateTOTPSecret(username string) (secret, url string, err error) {
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: username,
	})
	if errGenerate != nil {
		return "", "", errGenerate
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks a 6-digit code against a stored secret.
func ValidateTOTP(code, secret string) bool {
	code = strings.TrimSpace(code)
	secret = strings.TrimSpace(secret)
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
