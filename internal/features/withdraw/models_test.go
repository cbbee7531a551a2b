package withdraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input  string
		method string
		ok     bool
	}{
		{"1", MethodTelebirr, true},
		{"2", MethodCBE, true},
		{"3", MethodTransfer, true},
		{"telebirr", MethodTelebirr, true},
		{"TeleBirr", MethodTelebirr, true},
		{"pay me via telebirr please", MethodTelebirr, true},
		{"cbe", MethodCBE, true},
		{" CBE ", MethodCBE, true},
		{"transfer", MethodTransfer, true},
		{"bank Transfer", MethodTransfer, true},
		{"", "", false},
		{"4", "", false},
		{"paypal", "", false},
		{"cash", "", false},
	}

	for _, tt := range tests {
		method, ok := ParseMethod(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.method, method, "input %q", tt.input)
	}
}
