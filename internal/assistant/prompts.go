package assistant

import "fmt"

// EmergencyBrief is the subset of an emergency that goes into the alert prompt.
type EmergencyBrief struct {
	PatientName string
	BloodGroup  string
	Hospital    string
	Contact     string
}

const emergencyPromptTemplate = `Generate a compassionate and urgent emergency alert message for blood donors.
Patient: %s
Blood Group: %s
Hospital: %s
Contact: %s
Keep it concise, emotional, and actionable.`

const answerPromptTemplate = `You are a helpful blood donation assistant. Answer this question about blood donation accurately and concisely:

Question: %s

Provide factual, medical-accurate information. Keep the answer under 150 words.`

func emergencyPrompt(b EmergencyBrief) string {
	return fmt.Sprintf(emergencyPromptTemplate, b.PatientName, b.BloodGroup, b.Hospital, b.Contact)
}

func answerPrompt(question string) string {
	return fmt.Sprintf(answerPromptTemplate, question)
}

// FallbackEmergencyMessage is the deterministic alert used when drafting fails.
func FallbackEmergencyMessage(b EmergencyBrief) string {
	return fmt.Sprintf("URGENT: %s needs %s blood at %s. If you can donate, please contact %s as soon as possible. Every minute counts.",
		b.PatientName, b.BloodGroup, b.Hospital, b.Contact)
}
