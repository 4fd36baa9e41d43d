package chat

import "fmt"

// Profile selects the session mode. Smart runs the agentic loop on the
// capable model tier; Basic answers directly on the fast tier.
type Profile string

const (
	ProfileSmart Profile = "smart"
	ProfileBasic Profile = "basic"
)

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileSmart, ProfileBasic:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("unknown profile %q (valid: smart, basic)", s)
	}
}
