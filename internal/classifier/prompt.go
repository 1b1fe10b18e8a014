package classifier

import "strings"

const replyFormat = "Return in the format:\nClassification: <type>\nSummary: <one sentence>\nResponse: <helpful text>"

// BuildPrompt renders the channel specific prompt. Chat prompts ask the model
// to answer with the Non-Tech-Support sentinel for off-topic messages.
func BuildPrompt(in Input) string {
	var b strings.Builder
	switch in.Channel {
	case ChannelEmail:
		b.WriteString("Analyze the following email:\nSubject: ")
		b.WriteString(in.Subject)
		b.WriteString("\nBody: ")
		b.WriteString(in.Body)
		b.WriteString("\n\n")
		b.WriteString("1. Classify the issue (e.g., 'Billing', 'Bug Report', 'General Inquiry').\n")
		b.WriteString("2. Provide a one-sentence summary.\n")
		b.WriteString("3. Suggest a helpful tech support response for the user.\n")
	default:
		b.WriteString("Analyze the following chat message:\nMessage: ")
		b.WriteString(in.Body)
		b.WriteString("\n\n")
		b.WriteString("1. Determine if the message is a tech support question (e.g., related to account issues, billing, bugs, or technical problems).\n")
		b.WriteString("2. If it is NOT a tech support question, return only:\n")
		b.WriteString("Classification: Non-Tech-Support\n")
		b.WriteString("Summary: The query is not related to tech support.\n")
		b.WriteString("Response: Sorry, this query is outside the scope of tech support. Please ask about account issues, billing, or technical problems.\n")
		b.WriteString("3. If it IS a tech support question, provide:\n")
		b.WriteString("- Classification: <type, e.g., 'Billing', 'Bug Report', 'General Inquiry'>\n")
		b.WriteString("- Summary: <one sentence summarizing the issue>\n")
		b.WriteString("- Response: <helpful tech support response>\n")
	}
	b.WriteString(replyFormat)
	return b.String()
}
