package razorpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "test_secret_key"
	sig := Sign("order_abc123", "pay_xyz789", secret)

	assert.True(t, VerifySignature("order_abc123", "pay_xyz789", sig, secret))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	sig := Sign("order_abc123", "pay_xyz789", "secret_a")

	assert.False(t, VerifySignature("order_abc123", "pay_xyz789", sig, "secret_b"))
}

func TestVerifySignature_TamperedPayment(t *testing.T) {
	secret := "test_secret_key"
	sig := Sign("order_abc123", "pay_xyz789", secret)

	// 换一个 paymentID，签名必须失效
	assert.False(t, VerifySignature("order_abc123", "pay_other", sig, secret))
}

func TestVerifySignature_EmptySignature(t *testing.T) {
	assert.False(t, VerifySignature("order_abc123", "pay_xyz789", "", "secret"))
}

func TestSign_Deterministic(t *testing.T) {
	secret := "test_secret_key"

	assert.Equal(t,
		Sign("order_1", "pay_1", secret),
		Sign("order_1", "pay_1", secret))
	assert.NotEqual(t,
		Sign("order_1", "pay_1", secret),
		Sign("order_1", "pay_2", secret))
}
