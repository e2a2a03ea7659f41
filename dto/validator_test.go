package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIP(t *testing.T) {
	valid := []string{"1.2.3.4", "8.8.8.8", "255.255.255.255", "2001:db8::1", "::1"}
	for _, ip := range valid {
		assert.True(t, IsValidIP(ip), ip)
	}

	invalid := []string{"", "garbage", "999.999.999.999", "1.2.3", "1.2.3.4.5", "example.com"}
	for _, ip := range invalid {
		assert.False(t, IsValidIP(ip), ip)
	}
}

func TestFilterValidIPsPreservesOrder(t *testing.T) {
	in := []string{"8.8.8.8", "nope", "1.1.1.1", "", "2001:db8::1"}
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1", "2001:db8::1"}, FilterValidIPs(in))
}

func TestFilterValidIPsAllInvalid(t *testing.T) {
	assert.Empty(t, FilterValidIPs([]string{"a", "b"}))
	assert.Empty(t, FilterValidIPs(nil))
}
