package assist

import (
	"strings"
)

// maxExcerptLen bounds how much statement text is sent to the model.
const maxExcerptLen = 12000

// classifyStatement guesses the statement flavor from the filename. The
// guess only enriches the prompt; it never changes parsing logic.
func classifyStatement(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "savings"):
		return "a savings account statement"
	case strings.Contains(lower, "amex"):
		return "an American Express card statement"
	case strings.Contains(lower, "sampath"):
		return "a Sampath Bank statement"
	case strings.Contains(lower, "credit"):
		return "a credit card statement"
	default:
		return "a bank statement"
	}
}

// truncateExcerpt bounds the raw text to the model input limit.
func truncateExcerpt(text string) string {
	if len(text) <= maxExcerptLen {
		return text
	}
	return text[:maxExcerptLen]
}

// buildExtractionPrompt asks for a strict JSON array of transaction objects.
func buildExtractionPrompt(text, fileName string, accountHints []string) string {
	var b strings.Builder

	b.WriteString("You are a financial statement parser. The following text is ")
	b.WriteString(classifyStatement(fileName))
	b.WriteString(".\n\n")

	b.WriteString("Task:\n")
	b.WriteString("- Extract ALL transactions from the statement text below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")

	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string\n")
	b.WriteString("- \"amount\": number (positive for money IN, negative for money OUT)\n")
	b.WriteString("- \"accountNumber\": string or null\n\n")

	if len(accountHints) > 0 {
		b.WriteString("Account numbers seen in the statement: ")
		b.WriteString(strings.Join(accountHints, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n\n")

	b.WriteString("Statement text:\n")
	b.WriteString(truncateExcerpt(text))

	return b.String()
}
