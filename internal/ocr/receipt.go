// Package ocr implements the settlement-proof acceptance rule over receipt
// text. Actual text extraction is an external collaborator behind the
// Extractor interface; this package only decides whether extracted text
// looks like a payment receipt.
package ocr

import (
	"context"
	"strings"
)

// Extractor produces text from an uploaded receipt image.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Keywords is the fixed set of payment markers matched against extracted
// receipt text.
var Keywords = []string{
	"paid", "success", "successful", "transaction", "upi", "phonepe",
	"gpay", "paytm", "amount", "₹", "rupee", "sent", "received", "transfer",
}

// MinMatches is how many distinct keywords a receipt must contain to be
// accepted as settlement proof.
const MinMatches = 2

// MatchKeywords returns the keywords found in the text, in Keywords order.
// Matching is case-insensitive substring containment.
func MatchKeywords(text string) []string {
	lower := strings.ToLower(text)
	var matches []string
	for _, word := range Keywords {
		if strings.Contains(lower, word) {
			matches = append(matches, word)
		}
	}
	return matches
}

// Accept reports whether the text passes the settlement-proof rule.
func Accept(text string) bool {
	return len(MatchKeywords(text)) >= MinMatches
}
