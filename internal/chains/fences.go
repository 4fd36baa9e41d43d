package chains

import "strings"

// StripCodeFence removes surrounding code-fence markup from raw model
// output. Models routinely wrap programs in triple backticks with a
// language tag despite instructions not to; the program text inside is
// what we want. The tag match is case-sensitive.
func StripCodeFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	if strings.HasPrefix(s, "go") {
		s = s[2:]
	}
	return strings.Trim(s, "\n")
}
