package enum

// QuotationStatus represents the lifecycle state of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "draft"
	QuotationStatusSent     QuotationStatus = "sent"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
	QuotationStatusExpired  QuotationStatus = "expired"
)

var QuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusAccepted,
	QuotationStatusRejected,
	QuotationStatusExpired,
}

func (s QuotationStatus) String() string {
	return string(s)
}

func (s QuotationStatus) IsValid() bool {
	for _, v := range QuotationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// LeadOutcome maps a closing quotation status onto the lead status it implies.
// ok is false for statuses that do not close the deal.
func (s QuotationStatus) LeadOutcome() (LeadStatus, bool) {
	switch s {
	case QuotationStatusAccepted:
		return LeadStatusWon, true
	case QuotationStatusRejected:
		return LeadStatusLost, true
	}
	return "", false
}
