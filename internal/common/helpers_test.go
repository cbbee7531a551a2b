package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBirr(t *testing.T) {
	assert.Equal(t, "1500 birr", FormatBirr(1500))
	assert.Equal(t, "0 birr", FormatBirr(0))
	assert.Equal(t, "200 birr", FormatBirr(200))
}

func TestReferralLink(t *testing.T) {
	assert.Equal(t,
		"https://t.me/gebeyahub_bot?start=AB12CD34",
		ReferralLink("gebeyahub_bot", "AB12CD34"))
}

func TestFormatDateTime(t *testing.T) {
	// 09:04 UTC is 12:04 in Addis Ababa (UTC+3, no DST)
	ts := time.Date(2024, 3, 15, 9, 4, 0, 0, time.UTC)
	assert.Equal(t, "15.03.2024 12:04", FormatDateTime(ts))
}
