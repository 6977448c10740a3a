package provider

import (
	"strings"

	"github.com/lydia-game/payflow/internal/payments/domain"
)

// The provider never returns a status field for money movements; the only
// evidence is the wording of its artifacts. These vocabularies are the fixed
// substrings we trust. Keep them literal and lowercase; matching is
// case-insensitive.
var (
	positiveVocabulary = []string{
		"transaction completed",
		"payment processed",
		"payment initiated",
		"payment sent",
		"memo:",
	}

	negativeVocabulary = []string{
		"error",
		"failed",
		"insufficient funds",
		"unable",
		"difficulty",
	}
)

// Classify turns a raw command response into a definite outcome.
//
// Negative evidence wins: explicit failure language anywhere in the response
// means the operation did not complete, even if earlier artifacts looked
// affirmative. A response matching neither vocabulary classifies as failed;
// money movement is never assumed without affirmative evidence.
func Classify(command string, resp CommandResponse) domain.TransactionOutcome {
	outcome := domain.TransactionOutcome{
		Command:     command,
		RawResponse: resp.Text(),
	}

	if containsAny(resp, negativeVocabulary) {
		return outcome
	}

	outcome.Succeeded = containsAny(resp, positiveVocabulary)
	return outcome
}

func containsAny(resp CommandResponse, vocabulary []string) bool {
	for _, artifact := range resp.Artifacts {
		text := strings.ToLower(artifact.Content)
		for _, marker := range vocabulary {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}
