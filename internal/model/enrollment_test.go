package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollmentWithModules(completed ...bool) *Enrollment {
	e := &Enrollment{PaymentStatus: PaymentUnpaid}
	for i, done := range completed {
		e.Modules = append(e.Modules, EnrollmentModule{
			ModuleID:  uint(i + 1),
			Order:     i + 1,
			Completed: done,
		})
	}
	return e
}

func TestModuleStatesLinearUnlock(t *testing.T) {
	e := enrollmentWithModules(true, false, false)
	states := e.ModuleStates()
	require.Len(t, states, 3)

	assert.False(t, states[0].Locked, "first module is never locked")
	assert.False(t, states[1].Locked, "unlocked because the previous module is completed")
	assert.True(t, states[2].Locked, "locked until module two completes")
}

func TestModuleStatesFreshEnrollment(t *testing.T) {
	e := enrollmentWithModules(false, false, false)
	states := e.ModuleStates()

	assert.False(t, states[0].Locked)
	assert.True(t, states[1].Locked)
	assert.True(t, states[2].Locked)
}

func TestModuleStatesSortByOrder(t *testing.T) {
	e := &Enrollment{
		Modules: []EnrollmentModule{
			{ModuleID: 30, Order: 3},
			{ModuleID: 10, Order: 1, Completed: true},
			{ModuleID: 20, Order: 2},
		},
	}
	states := e.ModuleStates()
	assert.Equal(t, uint(10), states[0].ModuleID)
	assert.Equal(t, uint(20), states[1].ModuleID)
	assert.Equal(t, uint(30), states[2].ModuleID)
	assert.False(t, states[1].Locked)
	assert.True(t, states[2].Locked)
}

func TestAllModulesCompleted(t *testing.T) {
	assert.False(t, enrollmentWithModules().AllModulesCompleted(), "no modules means not completed")
	assert.False(t, enrollmentWithModules(true, false).AllModulesCompleted())
	assert.True(t, enrollmentWithModules(true, true, true).AllModulesCompleted())
}

func TestCapstoneLocked(t *testing.T) {
	assert.True(t, enrollmentWithModules(true, false).CapstoneLocked())
	assert.False(t, enrollmentWithModules(true, true).CapstoneLocked())
}

func TestStageDerivation(t *testing.T) {
	e := enrollmentWithModules(true, false, false)
	assert.Equal(t, StageInProgress, e.Stage())

	e = enrollmentWithModules(true, true, true)
	assert.Equal(t, StageCapstoneAvailable, e.Stage())

	e.CapstoneSubmitted = true
	assert.Equal(t, StageCapstoneSubmitted, e.Stage())

	e.CapstoneCompleted = true
	assert.Equal(t, StagePaymentDue, e.Stage())

	e.PaymentStatus = PaymentPartialPending
	assert.Equal(t, StagePaymentPending, e.Stage())

	e.PaymentStatus = PaymentPartialPaid
	assert.Equal(t, StagePaymentDue, e.Stage(), "partial payment still owes the remainder")

	e.PaymentStatus = PaymentFullPending
	assert.Equal(t, StagePaymentPending, e.Stage())

	e.PaymentStatus = PaymentFullyPaid
	assert.Equal(t, StageCertified, e.Stage())
}

func TestPaymentStatusPending(t *testing.T) {
	assert.True(t, PaymentPartialPending.Pending())
	assert.True(t, PaymentFullPending.Pending())
	assert.False(t, PaymentUnpaid.Pending())
	assert.False(t, PaymentPartialPaid.Pending())
	assert.False(t, PaymentFullyPaid.Pending())
}

func TestCertificateEligible(t *testing.T) {
	e := enrollmentWithModules(true, true)
	e.CapstoneCompleted = true
	e.PaymentStatus = PaymentFullyPaid
	assert.True(t, e.CertificateEligible())

	e.PaymentStatus = PaymentFullPending
	assert.False(t, e.CertificateEligible(), "pending verification is not paid")

	e.PaymentStatus = PaymentFullyPaid
	e.CapstoneCompleted = false
	assert.False(t, e.CertificateEligible())

	incomplete := enrollmentWithModules(true, false)
	incomplete.CapstoneCompleted = true
	incomplete.PaymentStatus = PaymentFullyPaid
	assert.False(t, incomplete.CertificateEligible())
}
