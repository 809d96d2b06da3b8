package models

// ContactMethod records how a prospect first reached the business.
type ContactMethod string

const (
	ContactPhone       ContactMethod = "Phone"
	ContactEmail       ContactMethod = "Email"
	ContactWhatsApp    ContactMethod = "WhatsApp"
	ContactWalkIn      ContactMethod = "WalkIn"
	ContactSocialMedia ContactMethod = "SocialMedia"
	ContactReferral    ContactMethod = "Referral"
	ContactOther       ContactMethod = "Other"
)

// Valid reports whether the contact method is supported.
func (c ContactMethod) Valid() bool {
	switch c {
	case ContactPhone, ContactEmail, ContactWhatsApp, ContactWalkIn, ContactSocialMedia, ContactReferral, ContactOther:
		return true
	}
	return false
}

// ServiceType is the discriminant of a prospect's service branch.
type ServiceType string

const (
	ServiceLanguageTraining ServiceType = "LanguageTraining"
	ServiceDocTranslation   ServiceType = "DocTranslation"
	ServiceInterpretation   ServiceType = "Interpretation"
)

// Valid reports whether the service type is supported.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceLanguageTraining, ServiceDocTranslation, ServiceInterpretation:
		return true
	}
	return false
}

// ProspectStatus tracks the prospect pipeline. Converted is terminal.
type ProspectStatus string

const (
	ProspectInquired  ProspectStatus = "Inquired"
	ProspectConverted ProspectStatus = "Converted"
)

// Valid reports whether the status is supported.
func (s ProspectStatus) Valid() bool {
	return s == ProspectInquired || s == ProspectConverted
}

// TaskStatus is shared by follow-ups and communications.
type TaskStatus string

const (
	TaskPending   TaskStatus = "Pending"
	TaskCompleted TaskStatus = "Completed"
)

// Valid reports whether the status is supported.
func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskCompleted
}

// Priority ranks communications.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether the priority is supported.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskKind distinguishes prospect follow-ups from general communications in the task feed.
type TaskKind string

const (
	TaskKindFollowUp      TaskKind = "FollowUp"
	TaskKindCommunication TaskKind = "Communication"
)

// Urgency classifies a task relative to the current day.
type Urgency string

const (
	UrgencyCompleted Urgency = "Completed"
	UrgencyOverdue   Urgency = "Overdue"
	UrgencyDueToday  Urgency = "DueToday"
	UrgencyUpcoming  Urgency = "Upcoming"
)

// DurationUnit measures interpretation engagements.
type DurationUnit string

const (
	DurationHours DurationUnit = "Hours"
	DurationDays  DurationUnit = "Days"
)

// Valid reports whether the unit is supported.
func (u DurationUnit) Valid() bool {
	return u == DurationHours || u == DurationDays
}

// Currency is the fixed set of currencies money is recorded in.
type Currency string

const (
	CurrencyRWF Currency = "RWF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists supported currencies in display order.
var Currencies = []Currency{CurrencyRWF, CurrencyUSD, CurrencyEUR, CurrencyGBP}

// Valid reports whether the currency is supported.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// PaymentMethod describes how money changed hands.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodBankTransfer PaymentMethod = "BankTransfer"
	MethodMobileMoney  PaymentMethod = "MobileMoney"
	MethodCard         PaymentMethod = "Card"
	MethodCheque       PaymentMethod = "Cheque"
)

// Valid reports whether the method is supported.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCard, MethodCheque:
		return true
	}
	return false
}

// ReferralSource records how a student heard about the school.
type ReferralSource string

const (
	ReferralFriend        ReferralSource = "Friend"
	ReferralSocialMedia   ReferralSource = "SocialMedia"
	ReferralWebsite       ReferralSource = "Website"
	ReferralAdvertisement ReferralSource = "Advertisement"
	ReferralWalkin        ReferralSource = "Walkin"
	ReferralOther         ReferralSource = "Other"
)

// Valid reports whether the referral source is supported. Empty is allowed.
func (r ReferralSource) Valid() bool {
	switch r {
	case "", ReferralFriend, ReferralSocialMedia, ReferralWebsite, ReferralAdvertisement, ReferralWalkin, ReferralOther:
		return true
	}
	return false
}

// Level is a CEFR-like proficiency band.
type Level string

// Levels lists every band from A1.1 to C2.2 in ascending order.
var Levels = []Level{
	"A1.1", "A1.2", "A2.1", "A2.2",
	"B1.1", "B1.2", "B2.1", "B2.2",
	"C1.1", "C1.2", "C2.1", "C2.2",
}

// Valid reports whether the level is a known band.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// Weekday names a day of the week in a class schedule.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Valid reports whether the day is a known weekday.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}
