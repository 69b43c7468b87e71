package models

import (
	"encoding/json"
	"errors"
)

// decodeEnum unmarshals a JSON string and checks it against the allowed values.
func decodeEnum(data []byte, name string, allowed ...string) (string, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return "", errors.New(name + " must be string")
	}
	for _, v := range allowed {
		if str == v {
			return str, nil
		}
	}
	return "", errors.New("invalid " + name)
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "A"
	UserRoleOwner  UserRole = "O"
	UserRoleCustom UserRole = "C"
)

func (t UserRole) IsValid() bool {
	switch t {
	case UserRoleAdmin, UserRoleOwner, UserRoleCustom:
		return true
	}
	return false
}

// convert input to enum type
func (t *UserRole) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "user role", "A", "O", "C")
	if err != nil {
		return err
	}
	*t = UserRole(str)
	return nil
}

type AccountType string

const (
	AccountTypeMerchant   AccountType = "M"
	AccountTypeFunder     AccountType = "F"
	AccountTypeISO        AccountType = "I"
	AccountTypeSyndicator AccountType = "S"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeMerchant, AccountTypeFunder, AccountTypeISO, AccountTypeSyndicator:
		return true
	}
	return false
}

func (t AccountType) Label() string {
	switch t {
	case AccountTypeMerchant:
		return "merchant"
	case AccountTypeFunder:
		return "funder"
	case AccountTypeISO:
		return "iso"
	case AccountTypeSyndicator:
		return "syndicator"
	}
	return "account"
}

func (t *AccountType) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "account type", "M", "F", "I", "S")
	if err != nil {
		return err
	}
	*t = AccountType(str)
	return nil
}

type AddressType string

const (
	AddressTypePhysical AddressType = "Physical"
	AddressTypeMailing  AddressType = "Mailing"
	AddressTypeBilling  AddressType = "Billing"
)

func (t *AddressType) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "address type", "Physical", "Mailing", "Billing")
	if err != nil {
		return err
	}
	*t = AddressType(str)
	return nil
}

type EntityType string

const (
	EntityTypeLLC                EntityType = "LLC"
	EntityTypeCorporation        EntityType = "Corporation"
	EntityTypeSoleProprietorship EntityType = "SoleProprietorship"
	EntityTypePartnership        EntityType = "Partnership"
	EntityTypeOther              EntityType = "Other"
)

func (t *EntityType) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "entity type", "LLC", "Corporation", "SoleProprietorship", "Partnership", "Other")
	if err != nil {
		return err
	}
	*t = EntityType(str)
	return nil
}

type FundingStatus string

const (
	FundingStatusDraft     FundingStatus = "Draft"
	FundingStatusApproved  FundingStatus = "Approved"
	FundingStatusFunded    FundingStatus = "Funded"
	FundingStatusPaidOff   FundingStatus = "PaidOff"
	FundingStatusDefaulted FundingStatus = "Defaulted"
	FundingStatusCancelled FundingStatus = "Cancelled"
)

// financial terms are frozen once money has moved
func (t FundingStatus) IsLocked() bool {
	switch t {
	case FundingStatusFunded, FundingStatusPaidOff, FundingStatusDefaulted:
		return true
	}
	return false
}

func (t *FundingStatus) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "funding status", "Draft", "Approved", "Funded", "PaidOff", "Defaulted", "Cancelled")
	if err != nil {
		return err
	}
	*t = FundingStatus(str)
	return nil
}

type PaybackPlanStatus string

const (
	PaybackPlanStatusActive    PaybackPlanStatus = "Active"
	PaybackPlanStatusPaused    PaybackPlanStatus = "Paused"
	PaybackPlanStatusCompleted PaybackPlanStatus = "Completed"
	PaybackPlanStatusCancelled PaybackPlanStatus = "Cancelled"
)

func (t *PaybackPlanStatus) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "payback plan status", "Active", "Paused", "Completed", "Cancelled")
	if err != nil {
		return err
	}
	*t = PaybackPlanStatus(str)
	return nil
}

// PaymentMethod is shared by paybacks and disbursements.
type PaymentMethod string

const (
	PaymentMethodACH   PaymentMethod = "ACH"
	PaymentMethodWire  PaymentMethod = "Wire"
	PaymentMethodCheck PaymentMethod = "Check"
	PaymentMethodCard  PaymentMethod = "Card"
	PaymentMethodOther PaymentMethod = "Other"
)

func (t *PaymentMethod) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "payment method", "ACH", "Wire", "Check", "Card", "Other")
	if err != nil {
		return err
	}
	*t = PaymentMethod(str)
	return nil
}

type PaybackStatus string

const (
	PaybackStatusScheduled PaybackStatus = "Scheduled"
	PaybackStatusPending   PaybackStatus = "Pending"
	PaybackStatusSucceeded PaybackStatus = "Succeeded"
	PaybackStatusFailed    PaybackStatus = "Failed"
	PaybackStatusReturned  PaybackStatus = "Returned"
)

func (t *PaybackStatus) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "payback status", "Scheduled", "Pending", "Succeeded", "Failed", "Returned")
	if err != nil {
		return err
	}
	*t = PaybackStatus(str)
	return nil
}

// IntentStatus is shared by disbursement and commission intents.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "Pending"
	IntentStatusApproved  IntentStatus = "Approved"
	IntentStatusRejected  IntentStatus = "Rejected"
	IntentStatusCancelled IntentStatus = "Cancelled"
)

type DisbursementStatus string

const (
	DisbursementStatusCompleted DisbursementStatus = "Completed"
	DisbursementStatusReversed  DisbursementStatus = "Reversed"
)

type CommissionBasis string

const (
	CommissionBasisPercent CommissionBasis = "P"
	CommissionBasisAmount  CommissionBasis = "A"
)

func (t *CommissionBasis) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "commission basis", "P", "A")
	if err != nil {
		return err
	}
	*t = CommissionBasis(str)
	return nil
}

type CommissionStatus string

const (
	CommissionStatusPaid       CommissionStatus = "Paid"
	CommissionStatusClawedBack CommissionStatus = "ClawedBack"
)

type FeeType string

const (
	FeeTypeOrigination FeeType = "Origination"
	FeeTypeNSF         FeeType = "NSF"
	FeeTypeLate        FeeType = "Late"
	FeeTypeWire        FeeType = "Wire"
	FeeTypeDefault     FeeType = "Default"
	FeeTypeOther       FeeType = "Other"
)

func (t *FeeType) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "fee type", "Origination", "NSF", "Late", "Wire", "Default", "Other")
	if err != nil {
		return err
	}
	*t = FeeType(str)
	return nil
}

type CreditReason string

const (
	CreditReasonDiscount    CreditReason = "Discount"
	CreditReasonEarlyPayoff CreditReason = "EarlyPayoff"
	CreditReasonAdjustment  CreditReason = "Adjustment"
	CreditReasonRefund      CreditReason = "Refund"
	CreditReasonOther       CreditReason = "Other"
)

func (t *CreditReason) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "credit reason", "Discount", "EarlyPayoff", "Adjustment", "Refund", "Other")
	if err != nil {
		return err
	}
	*t = CreditReason(str)
	return nil
}

type SyndicationStatus string

const (
	SyndicationStatusActive    SyndicationStatus = "Active"
	SyndicationStatusWithdrawn SyndicationStatus = "Withdrawn"
)

func (t *SyndicationStatus) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "syndication status", "Active", "Withdrawn")
	if err != nil {
		return err
	}
	*t = SyndicationStatus(str)
	return nil
}

type DocumentReferenceType string

const (
	DocumentReferenceTypeFunding DocumentReferenceType = "fundings"
	DocumentReferenceTypeAccount DocumentReferenceType = "accounts"
)

func (t *DocumentReferenceType) UnmarshalJSON(b []byte) error {
	str, err := decodeEnum(b, "reference type", "fundings", "accounts")
	if err != nil {
		return err
	}
	*t = DocumentReferenceType(str)
	return nil
}

// OutboxReferenceType identifies which ledger-affecting record an outbox row carries.
type OutboxReferenceType string

const (
	OutboxReferenceTypeFunding      OutboxReferenceType = "FD"
	OutboxReferenceTypePaybackPlan  OutboxReferenceType = "PP"
	OutboxReferenceTypePayback      OutboxReferenceType = "PB"
	OutboxReferenceTypeDisbursement OutboxReferenceType = "DB"
	OutboxReferenceTypeCommission   OutboxReferenceType = "CM"
	OutboxReferenceTypeFee          OutboxReferenceType = "FE"
	OutboxReferenceTypeCredit       OutboxReferenceType = "CR"
	OutboxReferenceTypeSyndication  OutboxReferenceType = "SY"
)

func (t OutboxReferenceType) IsValid() bool {
	switch t {
	case OutboxReferenceTypeFunding, OutboxReferenceTypePaybackPlan, OutboxReferenceTypePayback,
		OutboxReferenceTypeDisbursement, OutboxReferenceTypeCommission, OutboxReferenceTypeFee,
		OutboxReferenceTypeCredit, OutboxReferenceTypeSyndication:
		return true
	}
	return false
}

type PubSubMessageAction string

const (
	PubSubMessageActionCreate PubSubMessageAction = "C"
	PubSubMessageActionUpdate PubSubMessageAction = "U"
	PubSubMessageActionDelete PubSubMessageAction = "D"
)
