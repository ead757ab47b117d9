package entity

import "strings"

// Purpose scopes a passcode to the flow that requested it, so multiple
// flows can hold codes for the same identifier at the same time.
type Purpose string

const (
	// PurposeUnknown is mean purpose is not known / not set.
	PurposeUnknown Purpose = ""

	// PurposeLogin covers passcode-based sign in.
	PurposeLogin Purpose = "LOGIN"

	// PurposeRegistration covers account sign up confirmation.
	PurposeRegistration Purpose = "REGISTRATION"

	// PurposePasswordReset covers forgotten-password recovery.
	PurposePasswordReset Purpose = "PASSWORD_RESET"

	// PurposeTransaction covers per-transaction confirmation.
	PurposeTransaction Purpose = "TRANSACTION"

	// PurposeTwoFactor covers second-factor step up.
	PurposeTwoFactor Purpose = "TWO_FACTOR"

	// PurposePhoneVerification covers phone number ownership checks.
	PurposePhoneVerification Purpose = "PHONE_VERIFICATION"
)

func (p Purpose) String() string {
	return string(p)
}

func (p Purpose) IsUnknown() bool {
	switch p {
	case PurposeLogin, PurposeRegistration, PurposePasswordReset,
		PurposeTransaction, PurposeTwoFactor, PurposePhoneVerification:
		return false
	default:
		return true
	}
}

// PurposeFromString parses a wire-format purpose, case-insensitively.
// Unrecognized values map to PurposeUnknown.
func PurposeFromString(s string) Purpose {
	p := Purpose(strings.ToUpper(strings.TrimSpace(s)))
	if p.IsUnknown() {
		return PurposeUnknown
	}
	return p
}

// Purposes lists every valid purpose, in wire order.
func Purposes() []Purpose {
	return []Purpose{
		PurposeLogin,
		PurposeRegistration,
		PurposePasswordReset,
		PurposeTransaction,
		PurposeTwoFactor,
		PurposePhoneVerification,
	}
}
