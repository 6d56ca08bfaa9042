package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contactlink/internal/contact/models"
)

func ptr(v string) *string { return &v }

func TestNeedsNewSecondary(t *testing.T) {
	cluster := []*models.Contact{
		{ID: 1, Email: ptr("a@x.com"), PhoneNumber: ptr("111"), LinkPrecedence: models.LinkPrecedencePrimary},
		{ID: 2, Email: nil, PhoneNumber: ptr("222"), LinkPrecedence: models.LinkPrecedenceSecondary},
	}
	tests := []struct {
		name string
		in   IdentifyInput
		want bool
	}{
		{"both known", IdentifyInput{Email: ptr("a@x.com"), PhoneNumber: ptr("222")}, false},
		{"email only known", IdentifyInput{Email: ptr("a@x.com")}, false},
		{"phone only known", IdentifyInput{PhoneNumber: ptr("111")}, false},
		{"new phone", IdentifyInput{Email: ptr("a@x.com"), PhoneNumber: ptr("333")}, true},
		{"new email", IdentifyInput{Email: ptr("b@x.com"), PhoneNumber: ptr("111")}, true},
		{"new email alone", IdentifyInput{Email: ptr("b@x.com")}, true},
		{"case differs", IdentifyInput{Email: ptr("A@x.com")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsNewSecondary(tt.in, cluster))
		})
	}
}

func TestIdentifyInputNormalize(t *testing.T) {
	in := IdentifyInput{Email: ptr("  a@x.com\t"), PhoneNumber: ptr("   ")}.Normalize()
	assert.Equal(t, "a@x.com", *in.Email)
	assert.Nil(t, in.PhoneNumber)
	assert.False(t, in.IsEmpty())
	assert.Equal(t, []string{"email:a@x.com"}, in.LockKeys())

	assert.True(t, IdentifyInput{Email: ptr("")}.Normalize().IsEmpty())
	assert.Equal(t, []string{"email:e", "phone:1"}, IdentifyInput{Email: ptr("e"), PhoneNumber: ptr("1")}.LockKeys())
}
