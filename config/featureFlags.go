package config

// StrictFundingTermsLock also freezes advance/factor/holdback on Approved fundings.
// Funded fundings are always frozen; terms are then corrected with fees and credits.
//
// Set via env:
// - STRICT_FUNDING_TERMS_LOCK=true
func StrictFundingTermsLock() bool {
	return BoolFromEnv("STRICT_FUNDING_TERMS_LOCK")
}

// AllowPaybackOverpayment lets a Succeeded payback exceed the outstanding balance.
//
// Set via env:
// - ALLOW_PAYBACK_OVERPAYMENT=true
func AllowPaybackOverpayment() bool {
	return BoolFromEnv("ALLOW_PAYBACK_OVERPAYMENT")
}
