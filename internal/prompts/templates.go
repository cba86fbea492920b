package prompts

// Shared instruction blocks composed into every reviewer prompt.
const (
	// OutputContract tells the model exactly what JSON shape to produce.
	// Parsing downstream depends on these field names.
	OutputContract = `# OUTPUT FORMAT

Respond with a single JSON object and nothing else. No prose before or
after the JSON. The object must have this shape:

{
  "findings": [
    {
      "category": "SECURITY | ARCHITECTURE | PERFORMANCE | QUALITY | PYTHONIC | TYPING | TESTING | DOCUMENTATION",
      "severity": "CRITICAL | HIGH | MEDIUM | LOW | INFO",
      "title": "one-line summary of the issue",
      "description": "what is wrong and why it matters",
      "file_path": "path/to/file.py",
      "line_start": 10,
      "line_end": 14,
      "snippet": "the offending code, verbatim",
      "impact": "concrete consequence if left unfixed",
      "remediation": "how to fix it",
      "fixed_code": "corrected code, when a direct fix exists",
      "references": ["optional links or PEP numbers"],
      "confidence": 0.9,
      "effort": "low | medium | high"
    }
  ],
  "summary": "two or three sentences on the overall state of the file"
}

An empty findings array is a valid and welcome answer when the code is clean.`

	// ReviewGuidelines keeps findings actionable and low-noise.
	ReviewGuidelines = `# REVIEW GUIDELINES

- Report real issues, not style nitpicks a formatter would catch
- Every finding needs a file path and line range pointing at actual code
- Keep titles short and descriptions concrete, use active voice
- Do not pad the list, five strong findings beat twenty weak ones
- Set confidence honestly, 1.0 means you would stake the review on it
- Severity reflects impact: CRITICAL is exploitable or data-losing,
  HIGH breaks correctness, MEDIUM degrades the code, LOW is polish,
  INFO is worth knowing`
)
