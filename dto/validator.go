package dto

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// IsValidIP reports whether s is a syntactically valid IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	return validate.Var(s, "required,ip") == nil
}

// FilterValidIPs drops syntactically invalid entries, preserving order.
func FilterValidIPs(ips []string) []string {
	valid := make([]string, 0, len(ips))
	for _, ip := range ips {
		if IsValidIP(ip) {
			valid = append(valid, ip)
		}
	}
	return valid
}
