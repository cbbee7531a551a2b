package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandParser(t *testing.T) {
	parser := NewCommandParser("gebeyahub_bot")

	tests := []struct {
		name    string
		text    string
		command string
		args    []string
		ok      bool
	}{
		{"plain command", "/start", "start", nil, true},
		{"command with arg", "/start REFCODE1", "start", []string{"REFCODE1"}, true},
		{"uppercase normalized", "/Start", "start", nil, true},
		{"multiple args", "/paid 12345 vip receipt", "paid", []string{"12345", "vip", "receipt"}, true},
		{"addressed to us", "/help@gebeyahub_bot", "help", nil, true},
		{"addressed to us, mixed case", "/help@Gebeyahub_Bot", "help", nil, true},
		{"addressed to another bot", "/help@some_other_bot", "", nil, false},
		{"leading whitespace", "  /balance  ", "balance", nil, true},
		{"not a command", "hello there", "", nil, false},
		{"bare slash", "/", "", nil, false},
		{"empty", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, args, ok := parser.ParseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.args, args)
		})
	}
}
