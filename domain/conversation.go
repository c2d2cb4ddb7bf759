package domain

import (
	"strings"

	"chat-desk/errors"
)

// ConversationKey is the canonical identity of the unordered pair of
// participants. The lexicographically smaller id always comes first, so
// both directions of a conversation map to the same key.
type ConversationKey string

const keySeparator = ":"

func NewConversationKey(a, b string) ConversationKey {
	if b < a {
		a, b = b, a
	}
	return ConversationKey(a + keySeparator + b)
}

// ParseConversationKey validates a raw key received from a caller.
// It must decode to exactly two non-empty participant ids in canonical
// order, otherwise the request is rejected before any store access.
func ParseConversationKey(raw string) (ConversationKey, error) {
	parts := strings.Split(raw, keySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.ErrMalformedConversationKey
	}
	if parts[1] < parts[0] {
		return "", errors.ErrMalformedConversationKey
	}
	return ConversationKey(raw), nil
}

// Participants returns the two ids forming the key.
func (k ConversationKey) Participants() (string, string) {
	parts := strings.SplitN(string(k), keySeparator, 2)
	return parts[0], parts[1]
}

func (k ConversationKey) String() string { return string(k) }

// ValidParticipantID rejects ids that are empty or would collide with the
// key separator used in storage prefixes.
func ValidParticipantID(id string) bool {
	return id != "" && !strings.Contains(id, keySeparator)
}
