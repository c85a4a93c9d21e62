package llm

import "fmt"

// VerifyPhotoPrompt asks for a single-word boolean answer. Accepts the description.
const VerifyPhotoPrompt = `You are a strict validator. Answer ONLY "true" or "false".
Does this image match the description: "%s"?`

// BuildVerifyPrompt fills VerifyPhotoPrompt with the user's description
func BuildVerifyPrompt(description string) string {
	return fmt.Sprintf(VerifyPhotoPrompt, description)
}
