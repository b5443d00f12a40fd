package constants

const ContentType = "Content-Type"
const JSONContentType = "application/json"

// Accepted upload extensions. Hint only; the parser validates content.
var ClaimFileExtensions = []string{".txt", ".x12", ".edi"}

const (
	ClaimIDPrefix      = "CLM-"
	RemittanceIDPrefix = "RMT-"
	CheckNumberPrefix  = "CHK"
)

// This is set during compilation.
var Version = "latest"
