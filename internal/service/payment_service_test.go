package service

import (
	"certilearn_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProofRequest() ProofRequest {
	return ProofRequest{
		AccountHolderName: "张三",
		BankName:          "Example Bank",
		IFSCCode:          "EXMP0001234",
		AccountNumber:     "1234567890",
		TransactionID:     "TXN-2026-0001",
		Amount:            5000,
	}
}

func TestValidateProofRequestAllFieldsRequired(t *testing.T) {
	require.NoError(t, ValidateProofRequest(validProofRequest()))

	cases := []struct {
		name   string
		mutate func(*ProofRequest)
	}{
		{"accountHolderName", func(r *ProofRequest) { r.AccountHolderName = "" }},
		{"bankName", func(r *ProofRequest) { r.BankName = "  " }},
		{"ifscCode", func(r *ProofRequest) { r.IFSCCode = "" }},
		{"accountNumber", func(r *ProofRequest) { r.AccountNumber = "" }},
		{"transactionId", func(r *ProofRequest) { r.TransactionID = "\t" }},
	}
	for _, tc := range cases {
		req := validProofRequest()
		tc.mutate(&req)
		err := ValidateProofRequest(req)
		require.Error(t, err, tc.name)
		assert.Contains(t, err.Error(), tc.name)
	}
}

func TestValidateProofRequestScreenshotOptional(t *testing.T) {
	// 截图不是 ProofRequest 的字段，五个必填项齐全即可通过
	req := validProofRequest()
	req.Amount = 0
	assert.NoError(t, ValidateProofRequest(req))
}

func TestAllowedTransitionPartial(t *testing.T) {
	next, ok := allowedTransition(model.PaymentUnpaid, model.PaymentKindPartial)
	require.True(t, ok)
	assert.Equal(t, model.PaymentPartialPending, next)

	// 已部分支付后不能再次发起部分支付
	_, ok = allowedTransition(model.PaymentPartialPaid, model.PaymentKindPartial)
	assert.False(t, ok)
}

func TestAllowedTransitionFull(t *testing.T) {
	next, ok := allowedTransition(model.PaymentUnpaid, model.PaymentKindFull)
	require.True(t, ok)
	assert.Equal(t, model.PaymentFullPending, next)

	next, ok = allowedTransition(model.PaymentPartialPaid, model.PaymentKindFull)
	require.True(t, ok)
	assert.Equal(t, model.PaymentFullPending, next)
}

func TestAllowedTransitionBlockedStates(t *testing.T) {
	for _, kind := range []model.PaymentKind{model.PaymentKindPartial, model.PaymentKindFull} {
		_, ok := allowedTransition(model.PaymentPartialPending, kind)
		assert.False(t, ok, "pending verification blocks %s", kind)

		_, ok = allowedTransition(model.PaymentFullPending, kind)
		assert.False(t, ok, "pending verification blocks %s", kind)

		_, ok = allowedTransition(model.PaymentFullyPaid, kind)
		assert.False(t, ok, "fully paid blocks %s", kind)
	}
}
