package ocr

import (
	"reflect"
	"testing"
)

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "typical upi receipt",
			text: "Payment Successful! ₹450 sent via UPI to Rahul",
			// "success" is a substring of "successful", so both count.
			want: []string{"success", "successful", "upi", "₹", "sent"},
		},
		{
			name: "case insensitive",
			text: "PAID VIA GPAY",
			want: []string{"paid", "gpay"},
		},
		{
			name: "no payment markers",
			text: "grocery list: milk, eggs, bread",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchKeywords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"two matches accepted", "paid ₹100", true},
		{"exactly at threshold", "transfer received", true},
		{"single match rejected", "the amount is unclear", false},
		{"empty text rejected", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accept(tt.text); got != tt.want {
				t.Errorf("Accept(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
