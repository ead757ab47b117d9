package event

const OtpGeneratedDestination string = "otp_generated"
const OtpGeneratedConsumerAudit string = "otp_generated_audit"

const OtpVerifiedDestination string = "otp_verified"
const OtpVerifiedConsumerAudit string = "otp_verified_audit"

// OtpGeneratedMessage is published after a passcode has been created and
// dispatched. It carries the masked identifier only, never the passcode.
type OtpGeneratedMessage struct {
	ReferenceID      string `json:"reference_id"`
	MaskedIdentifier string `json:"masked_identifier"`
	Purpose          string `json:"purpose"`
	Channel          string `json:"channel"`
	ExpiresAt        int64  `json:"expires_at"`
}

// OtpVerifiedMessage is published after a passcode has been successfully
// validated and its record consumed.
type OtpVerifiedMessage struct {
	ReferenceID      string `json:"reference_id"`
	MaskedIdentifier string `json:"masked_identifier"`
	Purpose          string `json:"purpose"`
	VerifiedAt       int64  `json:"verified_at"`
}
