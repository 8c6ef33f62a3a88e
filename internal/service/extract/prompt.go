package extract

import "fmt"

const extractionSystemPrompt = "You are a medical fact extraction system. Output only valid JSON."

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(
		`Extract health facts stated by the user. Output format: JSON list of objects with fields {kind, name, severity, duration, value, unit, dose, frequency}. Allowed kinds: [symptom, vital_sign, medication]. Rules: 1. Only include facts the user explicitly stated, never inferred diagnoses. 2. Omit fields that were not mentioned. 3. Use lowercase names ("headache", "blood_pressure", "ibuprofen"). 4. Return [] when the message contains no health facts. Message: %s`,
		text,
	)
}
