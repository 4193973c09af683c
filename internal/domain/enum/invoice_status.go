package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus int

const (
	InvoiceStatusDraft     InvoiceStatus = 0
	InvoiceStatusSent      InvoiceStatus = 1
	InvoiceStatusViewed    InvoiceStatus = 2
	InvoiceStatusPaid      InvoiceStatus = 3
	InvoiceStatusOverdue   InvoiceStatus = 4
	InvoiceStatusCancelled InvoiceStatus = 5
)

var invoiceStatusNames = [...]string{"draft", "sent", "viewed", "paid", "overdue", "cancelled"}

// String returns the wire name. Out-of-range values surface as "unknown"
// rather than being masked as a real status.
func (s InvoiceStatus) String() string {
	if s < InvoiceStatusDraft || int(s) >= len(invoiceStatusNames) {
		return "unknown"
	}
	return invoiceStatusNames[s]
}

// ParseInvoiceStatus converts a wire name into an InvoiceStatus
func ParseInvoiceStatus(name string) (InvoiceStatus, bool) {
	for i, n := range invoiceStatusNames {
		if n == name {
			return InvoiceStatus(i), true
		}
	}
	return InvoiceStatusDraft, false
}

// IsTerminal reports whether no further transitions are allowed from s
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = InvoiceStatus(i)
		return nil
	}
	if parsed, ok := ParseInvoiceStatus(str); ok {
		*s = parsed
	}
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = InvoiceStatus(v)
	case int:
		*s = InvoiceStatus(v)
	}
	return nil
}
