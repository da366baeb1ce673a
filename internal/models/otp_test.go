// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/identity-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestOTPPurposeValid(t *testing.T) {
	assert.True(t, models.PurposeSignup.Valid())
	assert.True(t, models.PurposePasswordReset.Valid())
	assert.False(t, models.OTPPurpose("banana").Valid())
	assert.False(t, models.OTPPurpose("").Valid())
}

func TestOTPCodeIsConsumed(t *testing.T) {
	code := &models.OTPCode{}
	assert.False(t, code.IsConsumed())

	code.Consumed = 1
	assert.True(t, code.IsConsumed())
}

func TestOTPCodeExpiredAt(t *testing.T) {
	now := time.Now()
	code := &models.OTPCode{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, code.ExpiredAt(now))
	assert.True(t, code.ExpiredAt(now.Add(2*time.Minute)))
}
