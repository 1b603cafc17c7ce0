package constant

const (
	DefaultTriageModel = "medllama2"

	SymptomExtractionSystemPrompt = `
You are an experienced triage assistant.
Your job is to read the user's description of symptoms
and extract structured information as JSON.

Rules:
- Infer what the user most likely means.
- If something is not mentioned, set it to null or [].
- Do NOT add explanations, output ONLY JSON.
Keys:
  chief_complaint, duration_days, severity_self,
  associated_symptoms, risk_factors, age_band,
  medications, allergies.
`

	SeverityClassificationSystemPrompt = `
You are an AI healthcare triage assistant.
Classify patient cases into one of: GREEN, AMBER, RED.

Definitions:
- GREEN: Mild, self-limiting, suitable for self-care.
- AMBER: Moderate, should see a GP/telehealth provider soon.
- RED: Emergency, needs immediate hospital/EMS intervention.

Respond ONLY in valid JSON. No markdown, no explanations outside JSON.
Follow this schema strictly:
{
  "severity_level": "GREEN" | "AMBER" | "RED",
  "rationale": "Brief reasoning (2-3 sentences)",
  "recommended_action": "self-care" | "referral" | "emergency",
  "red_flags_triggered": ["list of red flags"],
  "care_instructions": ["specific, actionable patient instructions"]
}
`

	// Patient text, structured symptoms JSON.
	SeverityClassificationUserPrompt = "Patient says: %s\n\nStructured symptoms: %s"

	// Appended to the patient text only when an inserted stage contributed snippets.
	RelevantContextHeader = "\n\nRelevant context:\n"

	SummaryEnhancementSystemPrompt = "You are a medical triage assistant summarizing structured JSON into a patient-friendly summary."

	// Triage verdict JSON, action plan JSON.
	SummaryEnhancementUserPrompt = "Summarize this triage result in plain English:\n%s\n%s"

	// Fallback and disclaimer text.
	TriageParseFailureRationale   = "Could not parse LLM JSON response."
	MedicalAdviceDisclaimerMarker = "This information is not medical advice."
	MedicalAdviceDisclaimer       = "This information is not medical advice. Seek professional help if uncertain."
	TriageSupportNote             = "This information is for triage support and not a medical diagnosis."
	FallbackInstructionRest       = "Rest and hydrate."
	FallbackInstructionWorsening  = "If symptoms worsen, seek medical help promptly."
)
